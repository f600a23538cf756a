package engine

import (
	"context"
	"errors"
	"testing"

	"blockmerge/assert"
	"blockmerge/text"
	"blockmerge/types"
)

var marker = text.BoundaryMarker(text.DefaultBoundarySentinel)

func TestCoordinatorSingleSegment(t *testing.T) {
	doc := newMockDocument("A\nB\nC\n")
	c := newTestCoordinator(doc.selectLines(1, 3))
	assert.Equal(t, PhaseStreaming, c.Phase(), "starts streaming")

	c.Append("A\nX")
	c.Append("\nC")
	c.Complete()

	assert.Equal(t, PhaseReady, c.Phase(), "ready after complete")
	segs := c.Segments()
	assert.Len(t, segs, 1, "segments")
	assert.Len(t, segs[0].Blocks, 3, "blocks")
	assert.Equal(t, []int{1}, segs[0].Decisions.Indices(), "one modified block")

	resolved, total := c.AggregateProgress()
	assert.Equal(t, 0, resolved, "nothing resolved")
	assert.Equal(t, 1, total, "one to resolve")

	segs[0].Decisions.Set(1, types.DecisionBoth)
	resolved, _ = c.AggregateProgress()
	assert.Equal(t, 1, resolved, "resolved after set")

	reps, err := c.Apply(context.Background(), doc, types.DecisionCurrent)
	assert.NoError(t, err, "apply")
	assert.Len(t, reps, 1, "replacements")
	assert.Equal(t, "A\nB\nX\nC\n", doc.Content(), "document")
	assert.Equal(t, PhaseClosed, c.Phase(), "closed after apply")
}

func TestCoordinatorMultiSegmentAppliesBottomFirst(t *testing.T) {
	doc := newMockDocument("one\ntwo\nthree\nfour\n")
	c := newTestCoordinator(doc.selectLines(1, 1), doc.selectLines(3, 3))
	assert.Equal(t, "one"+marker+"three", c.OriginalCombined(), "combined original")

	c.Append("ONE" + marker + "THREE")
	c.Complete()

	segs := c.Segments()
	assert.Len(t, segs, 2, "segments")
	assert.Equal(t, 3, segs[1].StartLine, "second segment start line")
	assert.Equal(t, 3, segs[1].Blocks[0].OriginalStart, "blocks use document lines")

	_, err := c.Apply(context.Background(), doc, types.DecisionIncoming)
	assert.NoError(t, err, "apply")
	assert.Equal(t, "ONE\ntwo\nTHREE\nfour\n", doc.Content(), "document")
	assert.Len(t, doc.calls, 2, "two replace calls")
	assert.Equal(t, 8, doc.calls[0].From, "bottom segment first")
	assert.Equal(t, 0, doc.calls[1].From, "top segment last")
}

func TestCoordinatorIndependentDecisions(t *testing.T) {
	doc := newMockDocument("a\nb\n\nc\nd\n")
	c := newTestCoordinator(doc.selectLines(1, 2), doc.selectLines(4, 5))

	c.Append("a\nB" + marker + "c\nD")
	c.Complete()

	segs := c.Segments()
	segs[0].Decisions.AcceptAllCurrent()

	reps, err := c.Finalize(types.DecisionIncoming)
	assert.NoError(t, err, "finalize")
	assert.Len(t, reps, 2, "replacements")
	assert.Equal(t, 1, reps[0].Segment, "descending order")
	assert.Equal(t, "c\nD", reps[0].Text, "second segment takes default")
	assert.Equal(t, "a\nb", reps[1].Text, "first segment kept current")
}

func TestCoordinatorSegmentCountMismatch(t *testing.T) {
	doc := newMockDocument("x\ny\nz\n")
	c := newTestCoordinator(doc.selectLines(1, 1), doc.selectLines(2, 2), doc.selectLines(3, 3))

	c.Append("P" + marker + "Q")
	c.Complete()

	assert.Equal(t, PhaseReady, c.Phase(), "mismatch is not fatal")
	assert.Nil(t, c.Err(), "no error stored")
	segs := c.Segments()
	assert.Len(t, segs, 3, "one segment per selection")
	assert.Equal(t, "P"+marker+"Q", segs[0].ReplacementText, "whole replacement in segment 0")
	assert.Equal(t, "", segs[1].ReplacementText, "segment 1 empty")
	assert.Equal(t, "", segs[2].ReplacementText, "segment 2 empty")

	reps, err := c.Finalize(types.DecisionIncoming)
	assert.NoError(t, err, "finalize")
	assert.Len(t, reps, 3, "replacements")
	assert.Equal(t, "P"+marker+"Q", reps[2].Text, "segment 0 applied last")
}

func TestCoordinatorSegmentCountMismatchKeepsBlankLines(t *testing.T) {
	doc := newMockDocument("x\ny\nz\n")
	c := newTestCoordinator(doc.selectLines(1, 1), doc.selectLines(2, 2), doc.selectLines(3, 3))

	c.Append("P\n\n" + marker + "\n\nQ")
	c.Complete()

	segs := c.Segments()
	assert.Len(t, segs, 3, "one segment per selection")
	assert.Equal(t, "P\n\n"+marker+"\n\nQ", segs[0].ReplacementText, "marker and blank lines kept")
	assert.Equal(t, text.ReplacementText(segs[0].Blocks), segs[0].ReplacementText, "blocks cover the whole replacement")
}

func TestCoordinatorKeepsFencesOfFencedSelection(t *testing.T) {
	doc := newMockDocument("```go\nfoo()\n```\n")
	c := newTestCoordinator(doc.selectLines(1, 3))

	c.Append("```go\nfoo()\nbar()\n```")
	c.Complete()

	segs := c.Segments()
	assert.Len(t, segs, 1, "segments")
	assert.Equal(t, "```go\nfoo()\nbar()\n```", segs[0].ReplacementText, "fences kept")

	reps, err := c.Finalize(types.DecisionIncoming)
	assert.NoError(t, err, "finalize")
	assert.Equal(t, "```go\nfoo()\nbar()\n```", reps[0].Text, "final text")
}

func TestCoordinatorStreamError(t *testing.T) {
	doc := newMockDocument("A\n")
	c := newTestCoordinator(doc.selectLines(1, 1))

	c.Append("partial")
	c.Fail("rate limited")

	assert.Equal(t, PhaseReady, c.Phase(), "ready after error")
	assert.Len(t, c.Segments(), 0, "no segments")

	_, err := c.Finalize(types.DecisionIncoming)
	var streamErr *StreamError
	assert.True(t, errors.As(err, &streamErr), "stream error returned")
	assert.Equal(t, "rate limited", streamErr.Message, "message verbatim")

	_, err = c.Apply(context.Background(), doc, types.DecisionIncoming)
	assert.Error(t, err, "apply reports the error")
	assert.Equal(t, "A\n", doc.Content(), "document untouched")
}

func TestCoordinatorCancel(t *testing.T) {
	c := newTestCoordinator(types.Selection{From: 0, To: 1, StartLine: 1, Text: "A"})
	c.Append("B")
	c.Cancel()

	assert.Equal(t, PhaseClosed, c.Phase(), "closed")
	_, err := c.Finalize(types.DecisionIncoming)
	assert.ErrorIs(t, err, ErrSessionClosed, "finalize after cancel")

	c.Complete()
	assert.Equal(t, PhaseClosed, c.Phase(), "no transition out of closed")
}

func TestCoordinatorFinalizeBeforeReady(t *testing.T) {
	c := newTestCoordinator(types.Selection{From: 0, To: 1, StartLine: 1, Text: "A"})
	_, err := c.Finalize(types.DecisionIncoming)
	assert.ErrorIs(t, err, ErrNotReady, "still streaming")
}

func TestCoordinatorInvalidDefault(t *testing.T) {
	c := newTestCoordinator(types.Selection{From: 0, To: 1, StartLine: 1, Text: "A"})
	c.Append("B")
	c.Complete()

	_, err := c.Finalize(types.DecisionBoth)
	assert.ErrorIs(t, err, ErrInvalidDefault, "both is not a default")
}

func TestCoordinatorIgnoresChunksAfterComplete(t *testing.T) {
	c := newTestCoordinator(types.Selection{From: 0, To: 1, StartLine: 1, Text: "A"})
	c.Append("B")
	c.Complete()
	c.Append("more")

	assert.Equal(t, "B", c.Accumulated(), "late chunk dropped")
	assert.Equal(t, PhaseReady, c.Phase(), "still ready")
}

func TestCoordinatorNoSelections(t *testing.T) {
	_, err := NewCoordinator(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoSelections, "empty selection list")
}

func TestCoordinatorMarkerInSelection(t *testing.T) {
	sel := types.Selection{StartLine: 1, Text: "a" + marker + "b"}
	_, err := NewCoordinator([]types.Selection{sel}, DefaultConfig())
	assert.ErrorIs(t, err, ErrMarkerInSelection, "marker inside a selection")
}

func TestCoordinatorPreservesSelectionWhitespace(t *testing.T) {
	doc := newMockDocument("head\n\nA\nB\n\ntail\n")
	sel := doc.selectLines(2, 5)
	assert.Equal(t, "\nA\nB\n", sel.Text, "selection includes blank lines")

	c := newTestCoordinator(sel)
	assert.Equal(t, "A\nB", c.OriginalCombined(), "model sees trimmed text")

	c.Append("\n\nA\nX\n\n")
	c.Complete()

	segs := c.Segments()
	assert.Equal(t, 3, segs[0].StartLine, "start advanced past blank line")

	_, err := c.Apply(context.Background(), doc, types.DecisionIncoming)
	assert.NoError(t, err, "apply")
	assert.Equal(t, "head\n\nA\nX\n\ntail\n", doc.Content(), "blank lines kept")
}

func TestCoordinatorNormalizesStream(t *testing.T) {
	c := newTestCoordinator(types.Selection{StartLine: 1, Text: "A\nB"})
	c.Append("```\nA\n\n\n\n\nB\n```")
	c.Complete()

	segs := c.Segments()
	assert.Equal(t, "A\n\nB", segs[0].ReplacementText, "fence removed and blank run collapsed")
}

func TestCoordinatorPreviews(t *testing.T) {
	doc := newMockDocument("A\nB\nC\nD\n")
	c := newTestCoordinator(doc.selectLines(1, 2), doc.selectLines(3, 4))

	c.Append("A\nB2")
	previews := c.Previews()
	assert.Len(t, previews, 2, "one preview per selection")
	assert.False(t, previews[0].Pending, "first started")
	assert.True(t, previews[1].Pending, "second pending")

	c.Append(marker + "C")
	previews = c.Previews()
	assert.False(t, previews[1].Pending, "second started")
	assert.Equal(t, 3, previews[1].Lines[0].Number, "document numbering")
	assert.Nil(t, c.Segments(), "no segments while streaming")
}

func TestCoordinatorIDs(t *testing.T) {
	a := newTestCoordinator(types.Selection{Text: "x"})
	b := newTestCoordinator(types.Selection{Text: "x"})
	assert.NotEqual(t, a.ID(), b.ID(), "session ids differ")
	assert.Len(t, a.ID(), 36, "uuid string")
}
