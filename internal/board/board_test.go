package board

import (
	"testing"

	"github.com/i474232898/stopboard/internal/store"
	"github.com/i474232898/stopboard/internal/transit"
	"github.com/i474232898/stopboard/internal/weather"
)

func TestBoardReadsLatest(t *testing.T) {
	ts := store.New("transit", transit.Seed("Route 1"), store.Options{MaxHistory: 4})
	ws := store.New("weather", weather.Seed(), store.Options{MaxHistory: 4})
	b := New(ts, ws)

	snap, ok := b.GetTransitSnapshot()
	if !ok || snap.Version != 1 || snap.Title != "Route 1" {
		t.Fatalf("unexpected seed %+v ok=%t", snap, ok)
	}

	ts.Publish(transit.Snapshot{Mode: transit.ModeRail, HasData: true, Arrivals: transit.ArrivalsOf(2)})
	snap, ok = b.GetTransitSnapshot()
	if !ok || snap.Version != 2 || snap.Mode != transit.ModeRail {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w, ok := b.GetWeatherSnapshot()
	if !ok || w.Condition != weather.ConditionUnknown || w.HasData {
		t.Fatalf("unexpected weather seed %+v", w)
	}

	hist, ok := b.TransitHistory(10)
	if !ok || len(hist) != 2 {
		t.Fatalf("unexpected history %+v", hist)
	}
}

func TestBoardSeesEveryPublish(t *testing.T) {
	ts := store.New("transit", transit.Seed("Route 1"), store.Options{})
	ws := store.New("weather", weather.Seed(), store.Options{})
	b := New(ts, ws)

	ws.Publish(weather.SnapshotOf(weather.Reading{TemperatureC: 18, Condition: weather.ConditionClear}))
	ws.Publish(weather.SnapshotOf(weather.Reading{TemperatureC: 18, Condition: weather.ConditionClear}))

	w, ok := b.GetWeatherSnapshot()
	if !ok || w.TemperatureC != 18 || w.Version != 3 {
		t.Fatalf("unexpected snapshot %+v", w)
	}
	if hist, ok := b.WeatherHistory(5); !ok || len(hist) != 0 {
		t.Fatalf("history is disabled by default, got %+v", hist)
	}
}
