package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"blockmerge/decision"
	"blockmerge/logger"
	"blockmerge/reconcile"
	"blockmerge/text"
	"blockmerge/types"

	"github.com/google/uuid"
)

// Segment is one independently diffed original/replacement pair
type Segment struct {
	Index           int
	OriginalText    string
	ReplacementText string
	StartLine       int // document line of the segment's first original line
	Blocks          []text.Block
	Decisions       *decision.Manager
}

// FinalText reconciles the segment under the given default policy
func (s *Segment) FinalText(def types.Decision) (string, error) {
	return reconcile.GenerateFinalText(s.Blocks, s.Decisions.Snapshot(), def)
}

// Coordinator runs one review session over a set of selections: it collects
// the streamed replacement, splits it into segments once the stream is done
// and turns the recorded decisions into document replacements.
//
// Decision changes, stream events and finalize are expected to come from one
// caller at a time. Preview reads may run concurrently with stream appends.
type Coordinator struct {
	id         string
	created    time.Time
	cfg        Config
	selections []selectionInfo

	mu          sync.RWMutex
	phase       Phase
	accumulated strings.Builder
	segments    []*Segment
	streamErr   *StreamError
	applied     map[int]bool // segments already written to the document
}

// NewCoordinator starts a session in the streaming phase
func NewCoordinator(selections []types.Selection, cfg Config) (*Coordinator, error) {
	if len(selections) == 0 {
		return nil, ErrNoSelections
	}
	if cfg.Marker == "" {
		cfg.Marker = text.BoundaryMarker(text.DefaultBoundarySentinel)
	}

	c := &Coordinator{
		id:      uuid.NewString(),
		created: time.Now(),
		cfg:     cfg,
		phase:   PhaseStreaming,
		applied: make(map[int]bool),
	}

	for i, sel := range selections {
		lines := text.SplitLines(sel.Text)
		kept, leading, trailing := text.TrimBlankLines(lines)
		info := selectionInfo{
			sel:       sel,
			original:  strings.Join(kept, "\n"),
			leading:   leading,
			trailing:  trailing,
			startLine: max(sel.StartLine, 1) + len(leading),
		}
		if len(kept) == 0 {
			// Whitespace-only selection: nothing to re-attach around.
			info.leading, info.trailing = nil, nil
			info.startLine = max(sel.StartLine, 1)
		}
		if text.CountBoundaries(info.original, cfg.Marker) > 0 {
			return nil, fmt.Errorf("selection %d: %w", i, ErrMarkerInSelection)
		}
		c.selections = append(c.selections, info)
	}

	logger.Debug("engine %s: session started with %d selections", c.shortID(), len(selections))
	return c, nil
}

// ID returns the session id
func (c *Coordinator) ID() string {
	return c.id
}

func (c *Coordinator) shortID() string {
	if len(c.id) > 8 {
		return c.id[:8]
	}
	return c.id
}

// Created returns when the session started
func (c *Coordinator) Created() time.Time {
	return c.created
}

// Marker returns the boundary marker used by the session
func (c *Coordinator) Marker() string {
	return c.cfg.Marker
}

// OriginalCombined returns the trimmed selection texts joined by the marker.
// This is the text a model is asked to rewrite.
func (c *Coordinator) OriginalCombined() string {
	return text.JoinSegments(c.originals(), c.cfg.Marker)
}

func (c *Coordinator) originals() []string {
	out := make([]string, len(c.selections))
	for i, s := range c.selections {
		out[i] = s.original
	}
	return out
}

func (c *Coordinator) startLines() []int {
	out := make([]int, len(c.selections))
	for i, s := range c.selections {
		out[i] = s.startLine
	}
	return out
}

// Phase returns the current phase
func (c *Coordinator) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Accumulated returns the replacement text received so far
func (c *Coordinator) Accumulated() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accumulated.String()
}

// Err returns the stored stream error, if any
func (c *Coordinator) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.streamErr == nil {
		return nil
	}
	return c.streamErr
}

// Append delivers a chunk of replacement text
func (c *Coordinator) Append(chunk string) {
	c.handle(Event{Type: EventStreamChunk, Data: chunk})
}

// Complete signals the end of the stream and computes the segments
func (c *Coordinator) Complete() {
	c.handle(Event{Type: EventStreamComplete})
}

// Fail signals a stream error
func (c *Coordinator) Fail(message string) {
	c.handle(Event{Type: EventStreamError, Data: message})
}

// Cancel discards all segment state and closes the session
func (c *Coordinator) Cancel() {
	c.handle(Event{Type: EventCancel})
}

func (c *Coordinator) handle(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatch(ev)
}

// Previews returns the advisory per-segment view of the text received so far.
func (c *Coordinator) Previews() []text.SegmentPreview {
	partial := c.Accumulated()
	return text.BuildPreviews(c.originals(), partial, c.cfg.Marker, c.startLines())
}

// Segments returns the computed segments, nil before the ready phase
func (c *Coordinator) Segments() []*Segment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phase != PhaseReady {
		return nil
	}
	return append([]*Segment(nil), c.segments...)
}

// AggregateProgress sums resolved and total block counts over all segments
func (c *Coordinator) AggregateProgress() (resolved, total int) {
	for _, s := range c.Segments() {
		resolved += s.Decisions.ResolvedCount()
		total += s.Decisions.TotalCount()
	}
	return resolved, total
}

// Finalize reconciles every segment with the default policy and returns the
// replacement instructions in descending document order. A session that
// ended with a stream error returns that error and nothing else.
func (c *Coordinator) Finalize(def types.Decision) ([]types.Replacement, error) {
	defer logger.Trace("engine.Finalize")()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phase == PhaseClosed {
		return nil, ErrSessionClosed
	}
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	if c.phase != PhaseReady {
		return nil, ErrNotReady
	}
	if err := reconcile.ValidateDefault(def); err != nil {
		return nil, err
	}

	replacements := make([]types.Replacement, 0, len(c.segments))
	for _, seg := range c.segments {
		final, err := seg.FinalText(def)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		info := c.selections[seg.Index]
		replacements = append(replacements, types.Replacement{
			Segment: seg.Index,
			From:    info.sel.From,
			To:      info.sel.To,
			Text:    reattach(info, final),
		})
	}
	sortDescending(replacements)
	return replacements, nil
}

// Summary reports what Finalize with the given default would do
func (c *Coordinator) Summary(def types.Decision) reconcile.Summary {
	var total reconcile.Summary
	for _, seg := range c.Segments() {
		total.Add(reconcile.Summarize(seg.Blocks, seg.Decisions.Snapshot(), def))
	}
	return total
}

// reattach puts back the blank lines trimmed from the selection
func reattach(info selectionInfo, final string) string {
	if len(info.leading) == 0 && len(info.trailing) == 0 {
		return final
	}
	lines := make([]string, 0, len(info.leading)+len(info.trailing)+1)
	lines = append(lines, info.leading...)
	lines = append(lines, final)
	lines = append(lines, info.trailing...)
	return strings.Join(lines, "\n")
}

// Action functions for phase transitions

func (c *Coordinator) doAppendChunk(ev Event) {
	chunk, _ := ev.Data.(string)
	c.accumulated.WriteString(chunk)
}

func (c *Coordinator) doComputeSegments(Event) {
	defer logger.Trace("engine.computeSegments")()
	c.setPhase(PhaseComputing)

	replacement := c.accumulated.String()
	// A selected code block keeps its fences.
	if c.cfg.UnwrapCodeFence && !text.IsCodeFence(c.OriginalCombined()) {
		if inner, ok := text.UnwrapCodeFence(replacement); ok {
			logger.Debug("engine %s: unwrapped code fence", c.shortID())
			replacement = inner
		}
	}
	replacement = text.NormalizeStream(replacement)

	originals := text.SplitSegments(c.OriginalCombined(), c.cfg.Marker)
	parts := text.SplitSegments(replacement, c.cfg.Marker)
	if len(parts) != len(originals) {
		logger.Warn("engine %s: replacement has %d segments, original has %d; using the whole replacement for segment 0",
			c.shortID(), len(parts), len(originals))
		fallback := make([]string, len(originals))
		fallback[0] = replacement
		parts = fallback
	}

	segments := make([]*Segment, len(originals))
	for i := range originals {
		start := c.selections[i].startLine
		blocks := text.ComputeBlocks(originals[i], parts[i], start, c.cfg.Diff)
		segments[i] = &Segment{
			Index:           i,
			OriginalText:    originals[i],
			ReplacementText: parts[i],
			StartLine:       start,
			Blocks:          blocks,
			Decisions:       decision.NewManager(text.ModifiedIndices(blocks)),
		}
		logger.Debug("engine %s: segment %d has %d blocks, %d modified",
			c.shortID(), i, len(blocks), segments[i].Decisions.TotalCount())
	}

	c.segments = segments
	c.setPhase(PhaseReady)
}

func (c *Coordinator) doRecordStreamError(ev Event) {
	msg := eventMessage(ev)
	logger.Warn("engine %s: stream error: %s", c.shortID(), msg)
	c.streamErr = &StreamError{Message: msg}
	c.segments = nil
	c.setPhase(PhaseReady)
}

func (c *Coordinator) doClose(Event) {
	c.segments = nil
	c.setPhase(PhaseClosed)
}
