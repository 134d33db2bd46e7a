package transit

import "time"

// Titles names the two sources on the display.
type Titles struct {
	Bus  string
	Rail string
}

// NeedsSecondary reports whether the rail source should be queried. Only a
// confirmed-empty bus response justifies it; a failed bus query carries no
// evidence about service and must not be masked by rail data.
func NeedsSecondary(primary Outcome) bool {
	return primary.Empty()
}

// Resolve derives the cycle's snapshot from the two outcomes. It never looks
// at the previous mode. secondary is only consulted when NeedsSecondary is
// true for primary.
func Resolve(primary, secondary Outcome, titles Titles, now time.Time) Snapshot {
	switch {
	case primary.Err != nil:
		return Snapshot{Mode: ModeBus, Title: titles.Bus}

	case NeedsSecondary(primary):
		snap := Snapshot{Mode: ModeRail, BannerActive: true, Title: titles.Rail}
		if secondary.Err == nil {
			snap.HasData = true
			snap.Arrivals = ArrivalsFrom(secondary.Instants, now)
		}
		return snap

	default:
		return Snapshot{
			Mode:     ModeBus,
			HasData:  true,
			Arrivals: ArrivalsFrom(primary.Instants, now),
			Title:    titles.Bus,
		}
	}
}
