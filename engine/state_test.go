package engine

import (
	"testing"

	"blockmerge/assert"
)

func TestTransitionsTable(t *testing.T) {
	assert.NotNil(t, findTransition(PhaseStreaming, EventStreamChunk), "chunk while streaming")
	assert.NotNil(t, findTransition(PhaseStreaming, EventStreamComplete), "complete while streaming")
	assert.NotNil(t, findTransition(PhaseReady, EventStreamError), "error when ready")
	assert.Nil(t, findTransition(PhaseReady, EventStreamChunk), "no chunk when ready")
	assert.Nil(t, findTransition(PhaseReady, EventStreamComplete), "no second completion")

	for _, ev := range []EventType{EventStreamChunk, EventStreamComplete, EventStreamError, EventCancel} {
		assert.Nil(t, findTransition(PhaseClosed, ev), "nothing leaves closed: "+string(ev))
	}
}

func TestTransitionMapCoversTable(t *testing.T) {
	assert.Equal(t, len(transitions), len(transitionMap), "every transition indexed once")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Streaming", PhaseStreaming.String(), "streaming")
	assert.Equal(t, "Computing", PhaseComputing.String(), "computing")
	assert.Equal(t, "Ready", PhaseReady.String(), "ready")
	assert.Equal(t, "Closed", PhaseClosed.String(), "closed")
}

func TestErrorAfterReadyDropsSegments(t *testing.T) {
	c := newTestCoordinator(selection("A"))
	c.Append("B")
	c.Complete()
	assert.Len(t, c.Segments(), 1, "segments computed")

	c.Fail("late failure")

	assert.Equal(t, PhaseReady, c.Phase(), "still ready")
	assert.Len(t, c.Segments(), 0, "segments dropped")
	assert.NotNil(t, c.Err(), "error stored")
}
