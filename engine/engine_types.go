package engine

import (
	"context"

	"blockmerge/text"
	"blockmerge/types"
)

// ChunkStream delivers replacement text in order.
// Implemented by openai.Stream and replay.Stream.
type ChunkStream interface {
	ChunksChan() <-chan string // Closed when the stream ends
	Err() error                // Valid once ChunksChan is closed; nil means completion
	Cancel()                   // Stop the stream early
}

// Document receives the final text of each segment.
// Implemented by buffer.FileBuffer and buffer.NvimBuffer.
type Document interface {
	// ReplaceRange replaces the bytes [from, to) of the document
	ReplaceRange(ctx context.Context, from, to int, text string) error
}

// Phase is the coordinator's lifecycle position
type Phase int

const (
	PhaseStreaming Phase = iota
	PhaseComputing
	PhaseReady
	PhaseClosed // session ended by apply or cancel
)

func (p Phase) String() string {
	switch p {
	case PhaseStreaming:
		return "Streaming"
	case PhaseComputing:
		return "Computing"
	case PhaseReady:
		return "Ready"
	case PhaseClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Config holds the coordinator options
type Config struct {
	Marker          string           // boundary marker, see text.BoundaryMarker
	Diff            text.DiffOptions // options for every segment diff
	UnwrapCodeFence bool             // strip a single enclosing code fence before normalizing
}

// DefaultConfig returns the configuration used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Marker:          text.BoundaryMarker(text.DefaultBoundarySentinel),
		Diff:            text.DefaultDiffOptions(),
		UnwrapCodeFence: true,
	}
}

// selectionInfo is what the coordinator remembers about each selection
type selectionInfo struct {
	sel       types.Selection
	original  string   // selection text without leading/trailing blank lines
	leading   []string // blank lines trimmed from the start
	trailing  []string // blank lines trimmed from the end
	startLine int      // document line of the first kept line
}
