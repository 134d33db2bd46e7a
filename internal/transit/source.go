package transit

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/common"
	"github.com/i474232898/stopboard/internal/fetch"
	"github.com/i474232898/stopboard/internal/metrics"
)

// Source is one prediction endpoint.
type Source struct {
	Name  string
	Title string
	URL   string
}

// Outcome is the result of querying one source for one cycle.
type Outcome struct {
	Instants  []time.Time
	Err       error
	Truncated bool
}

// Empty reports a successful query that returned no usable predictions,
// i.e. the service confirmed there is nothing coming.
func (o Outcome) Empty() bool {
	return o.Err == nil && len(o.Instants) == 0
}

// Label classifies the outcome for metrics and logs.
func (o Outcome) Label() string {
	switch {
	case o.Err == nil && len(o.Instants) == 0:
		return "empty"
	case o.Err == nil:
		return "ok"
	case errors.Is(o.Err, ErrUnparsableResponse):
		return "unparsable"
	default:
		return fetch.Classify(o.Err)
	}
}

// Querier fetches and extracts predictions. It owns one receive buffer and
// is meant to be used by a single loop.
type Querier struct {
	fetcher fetch.Fetcher
	clock   clock.Clock
	metrics *metrics.Collector
	buf     []byte
}

func NewQuerier(f fetch.Fetcher, c clock.Clock, m *metrics.Collector) *Querier {
	return &Querier{fetcher: f, clock: c, metrics: m, buf: make([]byte, BufferSize)}
}

func (q *Querier) Query(ctx context.Context, src Source) Outcome {
	start := time.Now()
	out := q.query(ctx, src)
	q.metrics.ObserveFetch("transit", src.Name, out.Label(), time.Since(start))
	if out.Truncated {
		q.metrics.Truncated("transit")
	}
	return out
}

func (q *Querier) query(ctx context.Context, src Source) Outcome {
	res, err := q.fetcher.Fetch(ctx, src.URL, q.buf)
	if err != nil {
		log.Printf("WARN: transit: %s HTTP GET failed, status=%d: %v", src.Name, res.Status, err)
		return Outcome{Err: err}
	}
	log.Printf("INFO: transit: %s HTTP %d len=%d", src.Name, res.Status, len(res.Body))

	instants, err := ExtractPredictions(res.Body, q.clock.Now())
	if err != nil {
		log.Printf("WARN: transit: %s JSON parse failed (len=%d): %v", src.Name, len(res.Body), err)
		log.Printf("WARN: transit: JSON preview: %s", common.Preview(res.Body, 256))
		return Outcome{Err: err, Truncated: res.Truncated}
	}

	return Outcome{Instants: instants, Truncated: res.Truncated}
}
