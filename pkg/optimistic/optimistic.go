// Package optimistic provides the snapshot → apply → commit-or-revert helper
// used by client-side mirrors. The UI applies its intended state before the
// network call resolves; a failed call restores the captured snapshot so
// every mutation shares one rollback path.
package optimistic

// Action describes one optimistic mutation over local state of type S.
type Action[S any] struct {
	// Snapshot captures the current local state before the mutation.
	Snapshot func() S
	// Apply performs the intended local state change.
	Apply func()
	// Restore puts the captured snapshot back after a failed commit.
	Restore func(S)
	// Commit performs the authoritative server call.
	Commit func() error
}

// Run executes the action: snapshot, apply, commit. On commit failure the
// snapshot is restored and the error returned; on success the snapshot is
// discarded.
func Run[S any](a Action[S]) error {
	prev := a.Snapshot()
	a.Apply()
	if err := a.Commit(); err != nil {
		a.Restore(prev)
		return err
	}
	return nil
}

// Counter is a small optimistic integer mirror, e.g. a follower count or an
// unread badge.
type Counter struct {
	value int64
}

// NewCounter creates a Counter starting at v.
func NewCounter(v int64) *Counter {
	return &Counter{value: v}
}

// Value returns the current displayed value.
func (c *Counter) Value() int64 {
	return c.value
}

// Set overwrites the displayed value.
func (c *Counter) Set(v int64) {
	c.value = v
}

// Add runs an optimistic delta against the counter: the value moves
// immediately and moves back if commit fails.
func (c *Counter) Add(delta int64, commit func() error) error {
	return Run(Action[int64]{
		Snapshot: c.Value,
		Apply:    func() { c.value += delta },
		Restore:  c.Set,
		Commit:   commit,
	})
}
