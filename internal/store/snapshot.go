package store

import (
	"time"

	"github.com/i474232898/stopboard/internal/metrics"
)

// DefaultReadWait bounds how long a consumer waits for the snapshot lock.
const DefaultReadWait = 10 * time.Millisecond

// Versioned is implemented by snapshot value types. WithVersion returns a copy
// stamped with v.
type Versioned[T any] interface {
	GetVersion() uint32
	WithVersion(v uint32) T
}

// Options configures a SnapshotStore.
type Options struct {
	ReadWait   time.Duration
	MaxHistory int // recent snapshots kept for the history endpoint (0 = none)
	Metrics    *metrics.Collector
}

// SnapshotStore holds the latest published snapshot of one domain plus a
// monotonically increasing version. The lock is a one-slot channel so that
// readers can give up after a bounded wait; it is only ever held for a copy.
type SnapshotStore[T Versioned[T]] struct {
	name string
	sem  chan struct{}

	current T
	version uint32
	history []T

	readWait   time.Duration
	maxHistory int
	metrics    *metrics.Collector
}

// New creates a store seeded with seed at version 1.
func New[T Versioned[T]](name string, seed T, opts Options) *SnapshotStore[T] {
	if opts.ReadWait <= 0 {
		opts.ReadWait = DefaultReadWait
	}
	s := &SnapshotStore[T]{
		name:       name,
		sem:        make(chan struct{}, 1),
		version:    1,
		readWait:   opts.ReadWait,
		maxHistory: opts.MaxHistory,
		metrics:    opts.Metrics,
	}
	s.current = seed.WithVersion(s.version)
	s.appendHistory(s.current)
	return s
}

// Name returns the domain name the store was created with.
func (s *SnapshotStore[T]) Name() string { return s.name }

// Publish replaces the current snapshot and increments the version, even when
// nothing else changed. It returns the stored copy.
func (s *SnapshotStore[T]) Publish(snap T) T {
	s.sem <- struct{}{}
	s.version++
	snap = snap.WithVersion(s.version)
	s.current = snap
	s.appendHistory(snap)
	<-s.sem

	s.metrics.Published(s.name, snap.GetVersion())
	return snap
}

// Load returns the current snapshot, waiting as long as needed. Only the
// producing loop should call it.
func (s *SnapshotStore[T]) Load() T {
	s.sem <- struct{}{}
	snap := s.current
	<-s.sem
	return snap
}

// Read returns the current snapshot, or false if the lock could not be taken
// within the read wait. Callers keep their previous copy on false.
func (s *SnapshotStore[T]) Read() (T, bool) {
	if !s.acquire() {
		var zero T
		return zero, false
	}
	snap := s.current
	<-s.sem
	return snap, true
}

// History returns up to limit recent snapshots, newest last.
func (s *SnapshotStore[T]) History(limit int) ([]T, bool) {
	if !s.acquire() {
		return nil, false
	}
	defer func() { <-s.sem }()

	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	copy(out, s.history[len(s.history)-n:])
	return out, true
}

func (s *SnapshotStore[T]) acquire() bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
	}

	timer := time.NewTimer(s.readWait)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return true
	case <-timer.C:
		s.metrics.ReadTimeout(s.name)
		return false
	}
}

// appendHistory must be called with the lock held.
func (s *SnapshotStore[T]) appendHistory(snap T) {
	if s.maxHistory <= 0 {
		return
	}
	s.history = append(s.history, snap)
	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}
