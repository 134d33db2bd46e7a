package transit

import (
	"encoding/json"
	"time"
)

// Mode selects which source (and title) the board is showing.
type Mode string

const (
	ModeBus  Mode = "bus"
	ModeRail Mode = "rail"
)

const (
	// MaxPredictions caps how many instants are retained per response.
	MaxPredictions = 8
	// MaxArrivals caps how many arrivals are surfaced to the display.
	MaxArrivals = 3
	// StaleTolerance keeps predictions that are at most this far in the past.
	StaleTolerance = 30 * time.Second
	// BufferSize is the receive buffer for one prediction response.
	BufferSize = 16 << 10

	// SleepTitle is shown while outside display hours.
	SleepTitle = "Sleep Mode"
)

// Arrivals is a bounded sequence of minutes-until-arrival, at most
// MaxArrivals long. It is a value type so snapshot copies never share state.
type Arrivals struct {
	mins [MaxArrivals]int
	n    int
}

// ArrivalsOf builds an Arrivals from mins, dropping anything past the cap.
func ArrivalsOf(mins ...int) Arrivals {
	var a Arrivals
	for _, m := range mins {
		if !a.push(m) {
			break
		}
	}
	return a
}

func (a Arrivals) Len() int { return a.n }

// At returns the i-th arrival; it panics when i is out of range.
func (a Arrivals) At(i int) int {
	if i < 0 || i >= a.n {
		panic("transit: arrival index out of range")
	}
	return a.mins[i]
}

// Minutes returns a copy of the arrivals as a slice.
func (a Arrivals) Minutes() []int {
	out := make([]int, a.n)
	copy(out, a.mins[:a.n])
	return out
}

func (a *Arrivals) push(m int) bool {
	if a.n == MaxArrivals {
		return false
	}
	a.mins[a.n] = m
	a.n++
	return true
}

func (a Arrivals) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Minutes())
}

func (a *Arrivals) UnmarshalJSON(b []byte) error {
	var mins []int
	if err := json.Unmarshal(b, &mins); err != nil {
		return err
	}
	*a = ArrivalsOf(mins...)
	return nil
}

// Snapshot is the immutable transit state handed to the display.
type Snapshot struct {
	Mode         Mode     `json:"mode"`
	BannerActive bool     `json:"bannerActive"`
	Arrivals     Arrivals `json:"arrivals"`
	Title        string   `json:"title"`
	HasData      bool     `json:"hasData"`
	IsFetching   bool     `json:"isFetching"`
	DisplayOff   bool     `json:"displayOff"`
	Version      uint32   `json:"version"`
}

func (s Snapshot) GetVersion() uint32 { return s.Version }

func (s Snapshot) WithVersion(v uint32) Snapshot {
	s.Version = v
	return s
}

// Seed is the snapshot published at process start.
func Seed(busTitle string) Snapshot {
	return Snapshot{Mode: ModeBus, Title: busTitle, Version: 1}
}
