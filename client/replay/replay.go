// Package replay turns a fixed text into a chunk stream, so replacements read
// from a file, stdin or the clipboard go through the same streaming path as a
// model response.
package replay

import (
	"context"
	"time"
	"unicode/utf8"
)

// DefaultChunkSize is the chunk size used when none is given
const DefaultChunkSize = 64

// Stream replays text in fixed-size chunks
type Stream struct {
	chunks chan string
	cancel context.CancelFunc
}

// New starts replaying text. Chunks never split a UTF-8 sequence. A positive
// delay is waited before each chunk.
func New(ctx context.Context, text string, chunkSize int, delay time.Duration) *Stream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{chunks: make(chan string), cancel: cancel}
	go s.run(ctx, split(text, chunkSize), delay)
	return s
}

// Text replays the whole text as a single chunk
func Text(ctx context.Context, text string) *Stream {
	return New(ctx, text, max(len(text), 1), 0)
}

func (s *Stream) run(ctx context.Context, chunks []string, delay time.Duration) {
	defer close(s.chunks)
	defer s.cancel()
	for _, chunk := range chunks {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		select {
		case s.chunks <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) ChunksChan() <-chan string { return s.chunks }

// Err is always nil: a replay either completes or is cancelled
func (s *Stream) Err() error { return nil }

func (s *Stream) Cancel() { s.cancel() }

// split cuts text into pieces of about size bytes on rune boundaries
func split(text string, size int) []string {
	var out []string
	for len(text) > 0 {
		n := min(size, len(text))
		for n < len(text) && !utf8.RuneStart(text[n]) {
			n++
		}
		out = append(out, text[:n])
		text = text[n:]
	}
	return out
}
