package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveFetch("transit", "bus", "ok", time.Second)
	c.Truncated("transit")
	c.Fallback()
	c.ObserveCycle("weather", time.Second)
	c.Published("weather", 3)
	c.ReadTimeout("weather")
	c.SetClockSane(true)
	c.NATSSetConnected(true)
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.ObserveFetch("transit", "bus", "empty", 20*time.Millisecond)
	c.ObserveFetch("transit", "bus", "empty", 20*time.Millisecond)
	c.Fallback()
	c.Published("transit", 7)

	out := scrape(t, c)
	for _, want := range []string{
		`stopboard_fetches_total{domain="transit",outcome="empty",source="bus"} 2`,
		`stopboard_transit_fallbacks_total 1`,
		`stopboard_snapshot_version{domain="transit"} 7`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.Published("weather", 2)

	if out := scrape(t, c); !strings.Contains(out, `stopboard_snapshot_version{domain="weather"} 2`) {
		t.Fatalf("metrics output missing version gauge:\n%s", out)
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}
