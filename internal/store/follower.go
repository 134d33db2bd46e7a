package store

import "sync"

// Follower is the consumer side of a SnapshotStore: it remembers the last
// snapshot it managed to read and falls back to it when a read times out.
type Follower[T Versioned[T]] struct {
	store *SnapshotStore[T]

	mu   sync.Mutex
	last T
}

// NewFollower starts from the store's current snapshot.
func NewFollower[T Versioned[T]](s *SnapshotStore[T]) *Follower[T] {
	return &Follower[T]{store: s, last: s.Load()}
}

// Latest returns the freshest snapshot available. fresh is false when the
// store was busy and the previously held copy is returned instead.
func (f *Follower[T]) Latest() (snap T, fresh bool) {
	snap, ok := f.store.Read()

	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok {
		return f.last, false
	}
	f.last = snap
	return snap, true
}

// Changed reports whether the latest snapshot differs in version from seen,
// which is how a renderer decides to redraw.
func (f *Follower[T]) Changed(seen uint32) (T, bool) {
	snap, _ := f.Latest()
	return snap, snap.GetVersion() != seen
}

// History proxies to the underlying store.
func (f *Follower[T]) History(limit int) ([]T, bool) {
	return f.store.History(limit)
}
