package engine

import (
	"context"
	"fmt"
	"sync"

	"blockmerge/types"
)

// --- Mock implementations ---

// mockDocument implements the Document interface over an in-memory string
type mockDocument struct {
	mu      sync.Mutex
	content string
	fail    error
	calls   []types.Replacement
}

func newMockDocument(content string) *mockDocument {
	return &mockDocument{content: content}
}

func (d *mockDocument) ReplaceRange(_ context.Context, from, to int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	if from < 0 || to < from || to > len(d.content) {
		return fmt.Errorf("range [%d:%d] out of bounds", from, to)
	}
	d.calls = append(d.calls, types.Replacement{From: from, To: to, Text: text})
	d.content = d.content[:from] + text + d.content[to:]
	return nil
}

func (d *mockDocument) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// selectLines builds a selection of the 1-indexed inclusive line range
func (d *mockDocument) selectLines(start, end int) types.Selection {
	line, from, to := 1, -1, len(d.content)
	if start == 1 {
		from = 0
	}
	for i := 0; i < len(d.content); i++ {
		if d.content[i] != '\n' {
			continue
		}
		if line == end {
			to = i
			break
		}
		line++
		if line == start {
			from = i + 1
		}
	}
	return types.Selection{From: from, To: to, StartLine: start, Text: d.content[from:to]}
}

// mockStream implements ChunkStream over a buffered channel
type mockStream struct {
	ch        chan string
	err       error
	mu        sync.Mutex
	cancelled bool
}

// newMockStream returns a stream that delivers chunks and then ends with err
func newMockStream(err error, chunks ...string) *mockStream {
	s := &mockStream{ch: make(chan string, len(chunks)), err: err}
	for _, c := range chunks {
		s.ch <- c
	}
	close(s.ch)
	return s
}

// newOpenMockStream returns a stream that never ends on its own
func newOpenMockStream() *mockStream {
	return &mockStream{ch: make(chan string)}
}

func (s *mockStream) ChunksChan() <-chan string { return s.ch }
func (s *mockStream) Err() error                { return s.err }

func (s *mockStream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

func (s *mockStream) wasCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func newTestCoordinator(selections ...types.Selection) *Coordinator {
	c, err := NewCoordinator(selections, DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}
