// Package board is the consumer-facing read side: one handle per domain,
// constructed at startup and shared by the display and the HTTP API.
package board

import (
	"github.com/i474232898/stopboard/internal/store"
	"github.com/i474232898/stopboard/internal/transit"
	"github.com/i474232898/stopboard/internal/weather"
)

type Board struct {
	transit *store.Follower[transit.Snapshot]
	weather *store.Follower[weather.Snapshot]
}

func New(t *store.SnapshotStore[transit.Snapshot], w *store.SnapshotStore[weather.Snapshot]) *Board {
	return &Board{
		transit: store.NewFollower(t),
		weather: store.NewFollower(w),
	}
}

// GetTransitSnapshot returns the latest transit snapshot. ok is false when the
// store was busy past the read wait; the previous copy is returned then.
func (b *Board) GetTransitSnapshot() (transit.Snapshot, bool) {
	return b.transit.Latest()
}

// GetWeatherSnapshot is the weather counterpart of GetTransitSnapshot.
func (b *Board) GetWeatherSnapshot() (weather.Snapshot, bool) {
	return b.weather.Latest()
}

func (b *Board) TransitHistory(limit int) ([]transit.Snapshot, bool) {
	return b.transit.History(limit)
}

func (b *Board) WeatherHistory(limit int) ([]weather.Snapshot, bool) {
	return b.weather.History(limit)
}
