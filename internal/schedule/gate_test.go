package schedule

import (
	"testing"
	"time"

	"github.com/i474232898/stopboard/internal/link"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestWindowContains(t *testing.T) {
	cases := []struct {
		w    Window
		hour int
		want bool
	}{
		{Window{6, 23}, 5, false},
		{Window{6, 23}, 6, true},
		{Window{6, 23}, 22, true},
		{Window{6, 23}, 23, false},
		{Window{22, 6}, 23, true},
		{Window{22, 6}, 3, true},
		{Window{22, 6}, 6, false},
		{Window{22, 6}, 12, false},
		{AllDay, 0, true},
		{AllDay, 23, true},
		{Window{0, 24}, 23, true},
	}

	for _, tc := range cases {
		if got := tc.w.Contains(tc.hour); got != tc.want {
			t.Fatalf("%+v.Contains(%d) = %t, want %t", tc.w, tc.hour, got, tc.want)
		}
	}
}

func TestPermit(t *testing.T) {
	cases := []struct {
		connected, inWindow, sane bool
		want                      bool
	}{
		{true, true, true, true},
		{true, false, true, false},
		{true, false, false, true},
		{true, true, false, true},
		{false, true, true, false},
		{false, false, false, false},
	}

	for _, tc := range cases {
		if got := Permit(tc.connected, tc.inWindow, tc.sane); got != tc.want {
			t.Fatalf("Permit(%t, %t, %t) = %t, want %t", tc.connected, tc.inWindow, tc.sane, got, tc.want)
		}
	}
}

func TestGateBlocksOutsideWindowWithSaneClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)
	g := NewGate(Window{6, 23}, time.UTC, link.Static(true), fixedClock(now))

	d := g.Evaluate()
	if d.Allowed {
		t.Fatalf("expected fetch to be blocked at 02:30 with a sane clock: %+v", d)
	}
	if !d.Connected || d.InWindow || !d.ClockSane || d.Hour != 2 {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestGateAllowsWhenClockNotSane(t *testing.T) {
	// 1970-01-01 02:00 UTC is outside the window and before the threshold.
	g := NewGate(Window{6, 23}, time.UTC, link.Static(true), fixedClock(time.Unix(2*3600, 0)))

	if d := g.Evaluate(); !d.Allowed || d.ClockSane {
		t.Fatalf("expected fetch to be allowed on an unsynchronized clock: %+v", d)
	}
}

func TestGateUsesConfiguredZone(t *testing.T) {
	// 12:00 UTC is 07:00 in UTC-5, inside 6..23.
	zone := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(Window{6, 23}, zone, link.Static(true), fixedClock(now))

	if d := g.Evaluate(); d.Hour != 7 || !d.Allowed {
		t.Fatalf("expected local hour 7 and allowed, got %+v", d)
	}
}

func TestGateBlocksWithoutConnectivity(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(Window{6, 23}, time.UTC, link.Static(false), fixedClock(now))

	if d := g.Evaluate(); d.Allowed || d.Connected {
		t.Fatalf("expected blocked without connectivity: %+v", d)
	}
}
