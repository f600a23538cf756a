package engine

import (
	"blockmerge/logger"
)

// Transition represents a valid phase transition of the coordinator
type Transition struct {
	From   Phase
	Event  EventType
	Action func(*Coordinator, Event)
}

// transitions defines all valid phase transitions.
//
//	PhaseStreaming
//	├─[StreamChunk]──► append, stays streaming
//	├─[StreamComplete]──► PhaseComputing ──► PhaseReady
//	├─[StreamError]──► PhaseReady (no segments, error stored)
//	└─[Cancel]──► PhaseClosed
//
//	PhaseReady
//	├─[StreamError]──► PhaseReady (segments dropped, error stored)
//	└─[Cancel]──► PhaseClosed
//
// Apply also closes a ready session. Nothing leaves PhaseClosed.
var transitions = []Transition{
	{PhaseStreaming, EventStreamChunk, (*Coordinator).doAppendChunk},
	{PhaseStreaming, EventStreamComplete, (*Coordinator).doComputeSegments},
	{PhaseStreaming, EventStreamError, (*Coordinator).doRecordStreamError},
	{PhaseStreaming, EventCancel, (*Coordinator).doClose},

	{PhaseComputing, EventStreamError, (*Coordinator).doRecordStreamError},
	{PhaseComputing, EventCancel, (*Coordinator).doClose},

	{PhaseReady, EventStreamError, (*Coordinator).doRecordStreamError},
	{PhaseReady, EventCancel, (*Coordinator).doClose},
}

// transitionMap provides O(1) lookup for transitions by (phase, event) pair
var transitionMap map[transitionKey]*Transition

type transitionKey struct {
	from  Phase
	event EventType
}

func init() {
	transitionMap = make(map[transitionKey]*Transition)
	for i := range transitions {
		t := &transitions[i]
		transitionMap[transitionKey{from: t.From, event: t.Event}] = t
	}
}

// findTransition looks up a valid transition for the given phase and event.
// Returns nil if no valid transition exists.
func findTransition(from Phase, event EventType) *Transition {
	return transitionMap[transitionKey{from: from, event: event}]
}

// dispatch finds and executes the transition for an event. Must be called
// with c.mu held. The action performs the phase change itself.
func (c *Coordinator) dispatch(ev Event) bool {
	t := findTransition(c.phase, ev.Type)
	if t == nil {
		logger.Debug("no handler: phase=%s event=%s", c.phase, ev.Type)
		return false
	}
	if t.Action != nil {
		t.Action(c, ev)
	}
	return true
}

func (c *Coordinator) setPhase(p Phase) {
	if c.phase != p {
		logger.Debug("engine %s: phase %s -> %s", c.shortID(), c.phase, p)
	}
	c.phase = p
}
