package weather

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/common"
	"github.com/i474232898/stopboard/internal/fetch"
	"github.com/i474232898/stopboard/internal/metrics"
	"github.com/i474232898/stopboard/internal/schedule"
)

type clockSyncer interface {
	Sync(ctx context.Context) error
}

// Pipeline is the weather domain of the polling loop. It owns one receive
// buffer and is meant to be driven by a single loop.
type Pipeline struct {
	fetcher  fetch.Fetcher
	provider Provider
	loc      Location
	clock    clock.Clock
	syncer   clockSyncer
	metrics  *metrics.Collector

	buf      []byte
	syncOnce sync.Once
}

func NewPipeline(f fetch.Fetcher, p Provider, loc Location, c clock.Clock, s clockSyncer, m *metrics.Collector) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		provider: p,
		loc:      loc,
		clock:    c,
		syncer:   s,
		metrics:  m,
		buf:      make([]byte, BufferSize),
	}
}

func (p *Pipeline) Name() string { return "weather" }

// Idle is published when the gate blocks fetching.
func (p *Pipeline) Idle(d schedule.Decision) Snapshot {
	if !d.Connected {
		return Snapshot{Condition: ConditionNoWiFi}
	}
	return Snapshot{Condition: ConditionUnknown}
}

// Fetching is a placeholder; the previous reading is not kept on screen.
func (p *Pipeline) Fetching(Snapshot) Snapshot {
	return Snapshot{Condition: ConditionGeneric, IsFetching: true}
}

// Cycle fetches and parses one forecast. The clock sync is attempted once per
// process.
func (p *Pipeline) Cycle(ctx context.Context) Snapshot {
	p.syncOnce.Do(func() {
		if p.syncer != nil {
			_ = p.syncer.Sync(ctx)
		}
	})

	start := time.Now()
	snap, outcome := p.cycle(ctx)
	p.metrics.ObserveFetch(p.Name(), p.provider.Name(), outcome, time.Since(start))
	return snap
}

func (p *Pipeline) cycle(ctx context.Context) (Snapshot, string) {
	url := p.provider.URL(p.loc)

	res, err := p.fetcher.Fetch(ctx, url, p.buf)
	if err != nil {
		log.Printf("WARN: weather: %s HTTP GET failed, status=%d: %v", p.provider.Name(), res.Status, err)
		return Snapshot{Condition: ConditionNoData}, fetch.Classify(err)
	}
	log.Printf("INFO: weather: %s HTTP %d len=%d", p.provider.Name(), res.Status, len(res.Body))
	if res.Truncated {
		p.metrics.Truncated(p.Name())
	}

	reading, err := Extract(res.Body)
	if err != nil {
		log.Printf("WARN: weather: JSON parse failed (len=%d): %v", len(res.Body), err)
		log.Printf("WARN: weather: JSON preview: %s", common.Preview(res.Body, 256))
		return Snapshot{Condition: ConditionNoData}, "unparsable"
	}

	log.Printf("INFO: weather: %dC (H:%d L:%d) %s", reading.TemperatureC, reading.HighC, reading.LowC, reading.Condition)
	return SnapshotOf(reading), "ok"
}
