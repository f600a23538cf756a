// Package decision tracks the decision attached to each modified block of one
// segment.
package decision

import (
	"sort"
	"sync"

	"blockmerge/types"
)

// Notification is delivered to listeners after every effective mutation
type Notification struct {
	Index    int
	Decision types.Decision
	Resolved int
	Total    int
}

// Listener receives notifications synchronously, on the mutating goroutine
type Listener func(Notification)

// Manager owns the decisions for one segment. Indices outside the set given to
// NewManager are ignored by every mutation, so Resolved never exceeds Total.
type Manager struct {
	mu        sync.Mutex
	indices   []int
	known     map[int]bool
	decisions map[int]types.Decision

	listeners  map[int]Listener
	nextListen int
}

// NewManager creates a manager for the given modified block indices, all pending
func NewManager(modifiedIndices []int) *Manager {
	m := &Manager{
		indices:   make([]int, 0, len(modifiedIndices)),
		known:     make(map[int]bool, len(modifiedIndices)),
		decisions: make(map[int]types.Decision, len(modifiedIndices)),
		listeners: make(map[int]Listener),
	}
	for _, idx := range modifiedIndices {
		if m.known[idx] {
			continue
		}
		m.known[idx] = true
		m.indices = append(m.indices, idx)
	}
	return m
}

// Subscribe registers a listener and returns a function removing it
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListen
	m.nextListen++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Set records a decision for a block. Unknown indices and decisions are ignored.
func (m *Manager) Set(index int, d types.Decision) {
	m.mu.Lock()
	if !m.known[index] || !d.Valid() {
		m.mu.Unlock()
		return
	}
	m.record(index, d)
	n := m.notificationLocked(index, d)
	listeners := m.listenersLocked()
	m.mu.Unlock()

	notify(listeners, n)
}

// Get returns the recorded decision, or pending for unset and unknown indices
func (m *Manager) Get(index int) types.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions[index]
}

// Undo reverts a block to pending
func (m *Manager) Undo(index int) {
	m.Set(index, types.DecisionPending)
}

// AcceptAllIncoming decides every block as incoming
func (m *Manager) AcceptAllIncoming() {
	m.setAll(types.DecisionIncoming)
}

// AcceptAllCurrent decides every block as current
func (m *Manager) AcceptAllCurrent() {
	m.setAll(types.DecisionCurrent)
}

// ResetAll reverts every block to pending
func (m *Manager) ResetAll() {
	m.setAll(types.DecisionPending)
}

// setAll applies d to every managed index and raises a single notification
// keyed on the last index. Nothing is raised for an empty set.
func (m *Manager) setAll(d types.Decision) {
	m.mu.Lock()
	if len(m.indices) == 0 {
		m.mu.Unlock()
		return
	}
	for _, idx := range m.indices {
		m.record(idx, d)
	}
	last := m.indices[len(m.indices)-1]
	n := m.notificationLocked(last, d)
	listeners := m.listenersLocked()
	m.mu.Unlock()

	notify(listeners, n)
}

// ResolvedCount returns the number of blocks with a non-pending decision
func (m *Manager) ResolvedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolvedLocked()
}

// TotalCount returns the number of managed blocks
func (m *Manager) TotalCount() int {
	return len(m.indices)
}

// Indices returns the managed block indices in order
func (m *Manager) Indices() []int {
	return append([]int(nil), m.indices...)
}

// Snapshot returns a copy of the decisions for every managed index, with
// pending entries for blocks never decided.
func (m *Manager) Snapshot() map[int]types.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[int]types.Decision, len(m.indices))
	for _, idx := range m.indices {
		snap[idx] = m.decisions[idx]
	}
	return snap
}

func (m *Manager) record(index int, d types.Decision) {
	if d == types.DecisionPending {
		delete(m.decisions, index)
		return
	}
	m.decisions[index] = d
}

func (m *Manager) resolvedLocked() int {
	return len(m.decisions)
}

func (m *Manager) notificationLocked(index int, d types.Decision) Notification {
	return Notification{
		Index:    index,
		Decision: d,
		Resolved: m.resolvedLocked(),
		Total:    len(m.indices),
	}
}

func (m *Manager) listenersLocked() []Listener {
	if len(m.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids) // registration order
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = m.listeners[id]
	}
	return out
}

func notify(listeners []Listener, n Notification) {
	for _, l := range listeners {
		l(n)
	}
}
