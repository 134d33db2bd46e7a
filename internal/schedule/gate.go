package schedule

import (
	"time"

	"github.com/i474232898/stopboard/internal/clock"
	"github.com/i474232898/stopboard/internal/link"
)

// Window is a [Start, End) range of local wall-clock hours. A window with
// Start > End wraps past midnight; Start == End is open all day.
type Window struct {
	Start int
	End   int
}

// AllDay never blocks on the hour.
var AllDay = Window{}

// Contains reports whether hour falls inside the window.
func (w Window) Contains(hour int) bool {
	switch {
	case w.Start == w.End:
		return true
	case w.Start < w.End:
		return hour >= w.Start && hour < w.End
	default:
		return hour >= w.Start || hour < w.End
	}
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Allowed   bool
	Connected bool
	InWindow  bool
	ClockSane bool
	Hour      int
}

// Permit is the gating rule: fetch when connected and either inside the
// window or the clock has not been synchronized yet. An unsynchronized clock
// cannot be trusted to compute the window, and the first fetch is what gets
// it synchronized.
func Permit(connected, inWindow, clockSane bool) bool {
	return connected && (inWindow || !clockSane)
}

// Gate evaluates Permit against live collaborators.
type Gate struct {
	window Window
	loc    *time.Location
	link   link.Link
	clock  clock.Clock
}

func NewGate(window Window, loc *time.Location, l link.Link, c clock.Clock) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{window: window, loc: loc, link: l, clock: c}
}

func (g *Gate) Evaluate() Decision {
	now := g.clock.Now()
	hour := now.In(g.loc).Hour()

	d := Decision{
		Connected: g.link.Connected(),
		InWindow:  g.window.Contains(hour),
		ClockSane: clock.IsSane(now),
		Hour:      hour,
	}
	d.Allowed = Permit(d.Connected, d.InWindow, d.ClockSane)
	return d
}
