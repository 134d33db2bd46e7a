package poller

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/stopboard/internal/metrics"
	"github.com/i474232898/stopboard/internal/schedule"
	"github.com/i474232898/stopboard/internal/store"
)

// Domain is one polled data source (transit, weather). Implementations own
// their working buffers and are driven by exactly one Loop.
type Domain[T any] interface {
	Name() string
	// Idle is published when the gate blocks the cycle.
	Idle(d schedule.Decision) T
	// Fetching is published right before Cycle runs.
	Fetching(current T) T
	// Cycle fetches, parses and decides. It never fails: errors are folded
	// into a no-data snapshot.
	Cycle(ctx context.Context) T
}

// Gate decides whether a cycle may fetch.
type Gate interface {
	Evaluate() schedule.Decision
}

// Sink receives every published snapshot after it has been stored.
type Sink interface {
	Publish(domain string, snapshot any) error
}

// Config paces a Loop.
type Config struct {
	// Period is the sleep after a completed cycle.
	Period time.Duration
	// IdlePeriod is the sleep after a blocked cycle. Zero means Period.
	IdlePeriod time.Duration
}

// Loop runs gate, fetch, publish and sleep for one domain. Steps never
// overlap; a cycle that is in flight when ctx is cancelled has its fetches
// aborted and still publishes its best-effort result.
type Loop[T store.Versioned[T]] struct {
	domain  Domain[T]
	gate    Gate
	store   *store.SnapshotStore[T]
	sink    Sink
	metrics *metrics.Collector
	cfg     Config
}

// New creates a Loop. sink and m may be nil.
func New[T store.Versioned[T]](d Domain[T], g Gate, s *store.SnapshotStore[T], cfg Config, sink Sink, m *metrics.Collector) *Loop[T] {
	if cfg.IdlePeriod <= 0 {
		cfg.IdlePeriod = cfg.Period
	}
	return &Loop[T]{domain: d, gate: g, store: s, sink: sink, metrics: m, cfg: cfg}
}

// Run loops until ctx is done.
func (l *Loop[T]) Run(ctx context.Context) {
	name := l.domain.Name()
	l.metrics.SetPollPeriod(name, l.cfg.Period)
	log.Printf("INFO: poller: %s loop started (period=%s idle=%s)", name, l.cfg.Period, l.cfg.IdlePeriod)

	for {
		wait := l.RunOnce(ctx)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("INFO: poller: %s loop stopped: %v", name, ctx.Err())
			return
		case <-timer.C:
		}
	}
}

// RunOnce executes a single cycle and returns how long to sleep before the
// next one.
func (l *Loop[T]) RunOnce(ctx context.Context) time.Duration {
	name := l.domain.Name()
	cycleID := uuid.NewString()

	d := l.gate.Evaluate()
	if !d.Allowed {
		log.Printf("INFO: poller: %s cycle=%s blocked (connected=%t inWindow=%t clockSane=%t hour=%d)",
			name, cycleID, d.Connected, d.InWindow, d.ClockSane, d.Hour)
		l.publish(l.domain.Idle(d))
		return l.cfg.IdlePeriod
	}

	start := time.Now()
	l.publish(l.domain.Fetching(l.store.Load()))

	snap := l.domain.Cycle(ctx)
	stored := l.publish(snap)

	elapsed := time.Since(start)
	l.metrics.ObserveCycle(name, elapsed)
	log.Printf("INFO: poller: %s cycle=%s published version=%d in %s", name, cycleID, stored.GetVersion(), elapsed)
	return l.cfg.Period
}

func (l *Loop[T]) publish(snap T) T {
	stored := l.store.Publish(snap)
	if l.sink != nil {
		if err := l.sink.Publish(l.domain.Name(), stored); err != nil {
			log.Printf("WARN: poller: %s sink publish failed: %v", l.domain.Name(), err)
		}
	}
	return stored
}
