package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the board's Prometheus instruments. All methods are safe
// to call on a nil *Collector so callers can run without metrics.
type Collector struct {
	reg *prometheus.Registry

	Fetches       *prometheus.CounterVec // domain, source, outcome
	FetchDuration *prometheus.HistogramVec
	Truncations   *prometheus.CounterVec
	Fallbacks     prometheus.Counter

	CycleDuration *prometheus.HistogramVec
	Publishes     *prometheus.CounterVec
	Versions      *prometheus.GaugeVec
	ReadTimeouts  *prometheus.CounterVec

	ClockSane     prometheus.Gauge
	NATSConnected prometheus.Gauge
	NATSPublished prometheus.Counter
	NATSErrors    prometheus.Counter

	PollPeriod *prometheus.GaugeVec // seconds
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stopboard_fetches_total",
			Help: "Fetch attempts by domain, source and outcome.",
		}, []string{"domain", "source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stopboard_fetch_duration_seconds",
			Help:    "Duration of a single bounded fetch including parsing.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"domain"}),
		Truncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stopboard_truncated_responses_total",
			Help: "Responses that exceeded the receive buffer.",
		}, []string{"domain"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stopboard_transit_fallbacks_total",
			Help: "Cycles where the primary source was confirmed empty and the secondary was queried.",
		}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stopboard_cycle_duration_seconds",
			Help:    "Duration of a full polling cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"domain"}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stopboard_snapshot_publishes_total",
			Help: "Snapshots published per domain.",
		}, []string{"domain"}),
		Versions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stopboard_snapshot_version",
			Help: "Latest published snapshot version per domain.",
		}, []string{"domain"}),
		ReadTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stopboard_snapshot_read_timeouts_total",
			Help: "Consumer reads that gave up waiting for the snapshot lock.",
		}, []string{"domain"}),
		ClockSane: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stopboard_clock_sane",
			Help: "1 if the wall clock is past the sanity threshold, 0 otherwise.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stopboard_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stopboard_nats_published_total",
			Help: "Snapshots fanned out over NATS.",
		}),
		NATSErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stopboard_nats_publish_errors_total",
			Help: "NATS publish errors.",
		}),
		PollPeriod: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stopboard_poll_period_seconds",
			Help: "Configured poll period per domain.",
		}, []string{"domain"}),
	}

	reg.MustRegister(
		c.Fetches, c.FetchDuration, c.Truncations, c.Fallbacks,
		c.CycleDuration, c.Publishes, c.Versions, c.ReadTimeouts,
		c.ClockSane, c.NATSConnected, c.NATSPublished, c.NATSErrors,
		c.PollPeriod,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveFetch(domain, source, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Fetches.WithLabelValues(domain, source, outcome).Inc()
	c.FetchDuration.WithLabelValues(domain).Observe(d.Seconds())
}

func (c *Collector) Truncated(domain string) {
	if c == nil {
		return
	}
	c.Truncations.WithLabelValues(domain).Inc()
}

func (c *Collector) Fallback() {
	if c == nil {
		return
	}
	c.Fallbacks.Inc()
}

func (c *Collector) ObserveCycle(domain string, d time.Duration) {
	if c == nil {
		return
	}
	c.CycleDuration.WithLabelValues(domain).Observe(d.Seconds())
}

func (c *Collector) Published(domain string, version uint32) {
	if c == nil {
		return
	}
	c.Publishes.WithLabelValues(domain).Inc()
	c.Versions.WithLabelValues(domain).Set(float64(version))
}

func (c *Collector) ReadTimeout(domain string) {
	if c == nil {
		return
	}
	c.ReadTimeouts.WithLabelValues(domain).Inc()
}

func (c *Collector) SetClockSane(sane bool) {
	if c == nil {
		return
	}
	c.ClockSane.Set(boolGauge(sane))
}

func (c *Collector) SetPollPeriod(domain string, d time.Duration) {
	if c == nil {
		return
	}
	c.PollPeriod.WithLabelValues(domain).Set(d.Seconds())
}

// The NATS hooks satisfy publisher.PublisherMetrics.

func (c *Collector) NATSPublishedInc() {
	if c == nil {
		return
	}
	c.NATSPublished.Inc()
}

func (c *Collector) NATSPublishErrInc() {
	if c == nil {
		return
	}
	c.NATSErrors.Inc()
}

func (c *Collector) NATSSetConnected(connected bool) {
	if c == nil {
		return
	}
	c.NATSConnected.Set(boolGauge(connected))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
