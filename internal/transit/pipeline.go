package transit

import (
	"context"
	"log"

	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/metrics"
	"github.com/i474232898/stopboard/internal/schedule"
)

type clockSyncer interface {
	Sync(ctx context.Context) error
}

// Pipeline is the transit domain of the polling loop: bus first, rail on a
// confirmed-empty bus response.
type Pipeline struct {
	querier *Querier
	bus     Source
	rail    Source
	clock   clock.Clock
	syncer  clockSyncer
	metrics *metrics.Collector
}

func NewPipeline(q *Querier, bus, rail Source, c clock.Clock, s clockSyncer, m *metrics.Collector) *Pipeline {
	if bus.Name == "" {
		bus.Name = "bus"
	}
	if rail.Name == "" {
		rail.Name = "rail"
	}
	return &Pipeline{querier: q, bus: bus, rail: rail, clock: c, syncer: s, metrics: m}
}

func (p *Pipeline) Name() string { return "transit" }

func (p *Pipeline) titles() Titles {
	return Titles{Bus: p.bus.Title, Rail: p.rail.Title}
}

// Idle is published when the gate blocks fetching.
func (p *Pipeline) Idle(d schedule.Decision) Snapshot {
	if d.Connected && !d.InWindow {
		return Snapshot{Mode: ModeBus, Title: SleepTitle, DisplayOff: true}
	}
	return Snapshot{Mode: ModeBus, Title: p.bus.Title, DisplayOff: !d.InWindow}
}

// Fetching keeps the current data on screen while a cycle runs.
func (p *Pipeline) Fetching(current Snapshot) Snapshot {
	current.IsFetching = true
	current.DisplayOff = false
	return current
}

// Cycle runs one full fetch and returns the snapshot to publish.
func (p *Pipeline) Cycle(ctx context.Context) Snapshot {
	if p.syncer != nil {
		_ = p.syncer.Sync(ctx)
	}
	p.metrics.SetClockSane(clock.IsSane(p.clock.Now()))

	primary := p.querier.Query(ctx, p.bus)
	log.Printf("INFO: transit: bus outcome=%s count=%d", primary.Label(), len(primary.Instants))

	var secondary Outcome
	if NeedsSecondary(primary) {
		p.metrics.Fallback()
		secondary = p.querier.Query(ctx, p.rail)
		log.Printf("INFO: transit: rail outcome=%s count=%d", secondary.Label(), len(secondary.Instants))
	}

	return Resolve(primary, secondary, p.titles(), p.clock.Now())
}
