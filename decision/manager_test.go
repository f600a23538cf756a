package decision

import (
	"blockmerge/assert"
	"blockmerge/types"
	"testing"
)

func TestManagerStartsPending(t *testing.T) {
	m := NewManager([]int{1, 3, 5})

	assert.Equal(t, 0, m.ResolvedCount(), "resolved")
	assert.Equal(t, 3, m.TotalCount(), "total")
	for _, idx := range []int{1, 3, 5} {
		assert.Equal(t, types.DecisionPending, m.Get(idx), "pending")
	}
	assert.Equal(t, map[int]types.Decision{
		1: types.DecisionPending,
		3: types.DecisionPending,
		5: types.DecisionPending,
	}, m.Snapshot(), "snapshot covers every index")
}

func TestManagerIgnoresUnknownDecision(t *testing.T) {
	m := NewManager([]int{1})
	notified := 0
	m.Subscribe(func(Notification) { notified++ })

	m.Set(1, types.Decision(9))
	assert.Equal(t, types.DecisionPending, m.Get(1), "still pending")
	assert.Equal(t, 0, m.ResolvedCount(), "not resolved")
	assert.Equal(t, 0, notified, "no notification")
	assert.False(t, types.Decision(9).Valid(), "out of range")
	assert.True(t, types.DecisionBoth.Valid(), "both is valid")
}

func TestManagerSetAndUndo(t *testing.T) {
	m := NewManager([]int{1, 3})
	var got []Notification
	m.Subscribe(func(n Notification) { got = append(got, n) })

	m.Set(1, types.DecisionIncoming)
	assert.Equal(t, types.DecisionIncoming, m.Get(1), "decision recorded")
	assert.Equal(t, 1, m.ResolvedCount(), "resolved")

	m.Set(3, types.DecisionBoth)
	assert.Equal(t, 2, m.ResolvedCount(), "resolved")

	m.Undo(1)
	assert.Equal(t, types.DecisionPending, m.Get(1), "undone")
	assert.Equal(t, 1, m.ResolvedCount(), "resolved after undo")

	assert.Len(t, got, 3, "one notification per mutation")
	assert.Equal(t, Notification{Index: 1, Decision: types.DecisionIncoming, Resolved: 1, Total: 2}, got[0], "first")
	assert.Equal(t, Notification{Index: 3, Decision: types.DecisionBoth, Resolved: 2, Total: 2}, got[1], "second")
	assert.Equal(t, Notification{Index: 1, Decision: types.DecisionPending, Resolved: 1, Total: 2}, got[2], "undo")
}

func TestManagerUnknownIndexIsNoOp(t *testing.T) {
	m := NewManager([]int{2})
	notified := 0
	m.Subscribe(func(Notification) { notified++ })

	m.Set(0, types.DecisionIncoming)
	m.Set(7, types.DecisionCurrent)
	m.Undo(9)

	assert.Equal(t, 0, m.ResolvedCount(), "resolved unchanged")
	assert.Equal(t, types.DecisionPending, m.Get(7), "unknown index reads pending")
	assert.Equal(t, 0, notified, "no notification")
	_, exists := m.Snapshot()[7]
	assert.False(t, exists, "no entry for unknown index")

	m.Set(2, types.DecisionCurrent)
	m.Set(4, types.DecisionCurrent)
	assert.Equal(t, 1, m.ResolvedCount(), "resolved never exceeds total")
	assert.Equal(t, m.TotalCount(), m.ResolvedCount(), "all resolved")
}

func TestManagerBulkOperations(t *testing.T) {
	m := NewManager([]int{0, 2, 4})
	var got []Notification
	m.Subscribe(func(n Notification) { got = append(got, n) })

	m.AcceptAllIncoming()
	assert.Equal(t, 3, m.ResolvedCount(), "all incoming")
	assert.Len(t, got, 1, "single notification")
	assert.Equal(t, Notification{Index: 4, Decision: types.DecisionIncoming, Resolved: 3, Total: 3}, got[0], "keyed on last index")

	m.AcceptAllCurrent()
	for _, idx := range []int{0, 2, 4} {
		assert.Equal(t, types.DecisionCurrent, m.Get(idx), "all current")
	}

	m.ResetAll()
	assert.Equal(t, 0, m.ResolvedCount(), "reset")
	assert.Len(t, got, 3, "one notification per bulk call")
	assert.Equal(t, types.DecisionPending, got[2].Decision, "reset notification")
}

func TestManagerBulkOnEmptySet(t *testing.T) {
	m := NewManager(nil)
	notified := 0
	m.Subscribe(func(Notification) { notified++ })

	m.AcceptAllIncoming()
	m.ResetAll()

	assert.Equal(t, 0, m.TotalCount(), "total")
	assert.Equal(t, 0, notified, "nothing to notify")
}

func TestManagerSnapshotIsACopy(t *testing.T) {
	m := NewManager([]int{1})
	snap := m.Snapshot()

	m.Set(1, types.DecisionIncoming)

	assert.Equal(t, types.DecisionPending, snap[1], "snapshot unaffected by later set")
	snap[1] = types.DecisionBoth
	assert.Equal(t, types.DecisionIncoming, m.Get(1), "manager unaffected by snapshot writes")
}

func TestManagerUnsubscribe(t *testing.T) {
	m := NewManager([]int{1})
	var order []string
	m.Subscribe(func(Notification) { order = append(order, "first") })
	unsubscribe := m.Subscribe(func(Notification) { order = append(order, "second") })

	m.Set(1, types.DecisionIncoming)
	unsubscribe()
	m.Set(1, types.DecisionCurrent)

	assert.Equal(t, []string{"first", "second", "first"}, order, "listener order and removal")
}

func TestManagerDuplicateIndices(t *testing.T) {
	m := NewManager([]int{1, 1, 2})
	assert.Equal(t, 2, m.TotalCount(), "duplicates collapse")
	assert.Equal(t, []int{1, 2}, m.Indices(), "indices")
}
