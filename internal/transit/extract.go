package transit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/i474232898/stopboard/internal/isotime"
)

// ErrUnparsableResponse means the service could not be queried: the body is
// not JSON or carries no "data" array. It is distinct from an empty array.
var ErrUnparsableResponse = errors.New("unparsable transit response")

type predictionPayload struct {
	Data json.RawMessage `json:"data"`
}

type predictionItem struct {
	Attributes map[string]any `json:"attributes"`
}

// ExtractPredictions parses a predictions body into ascending, de-duplicated
// instants no older than now-StaleTolerance, capped at MaxPredictions.
// Elements without a usable timestamp are skipped.
func ExtractPredictions(body []byte, now time.Time) ([]time.Time, error) {
	var payload predictionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	data := bytes.TrimSpace(payload.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: data is not an array", ErrUnparsableResponse)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	cutoff := now.Add(-StaleTolerance)
	seen := make(map[int64]struct{}, len(items))
	instants := make([]time.Time, 0, len(items))

	for _, raw := range items {
		var item predictionItem
		if err := json.Unmarshal(raw, &item); err != nil || item.Attributes == nil {
			continue
		}

		ts, ok := predictionTime(item.Attributes)
		if !ok {
			continue
		}

		at, err := isotime.Parse(ts)
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		if _, dup := seen[at.Unix()]; dup {
			continue
		}
		seen[at.Unix()] = struct{}{}

		instants = append(instants, at)
	}

	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	if len(instants) > MaxPredictions {
		instants = instants[:MaxPredictions]
	}
	return instants, nil
}

// predictionTime prefers arrival over departure.
func predictionTime(attrs map[string]any) (string, bool) {
	for _, key := range []string{"arrival_time", "departure_time"} {
		if s, ok := attrs[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// ArrivalsFrom reduces instants to whole minutes from now, rounding up, for
// at most MaxArrivals entries. Negative values are dropped rather than
// clamped.
func ArrivalsFrom(instants []time.Time, now time.Time) Arrivals {
	var a Arrivals
	for _, at := range instants {
		if a.Len() == MaxArrivals {
			break
		}
		m := MinutesUntil(at, now)
		if m < 0 {
			continue
		}
		a.push(m)
	}
	return a
}

// MinutesUntil is ceil((at - now) / 1m).
func MinutesUntil(at, now time.Time) int {
	return int(math.Ceil(at.Sub(now).Minutes()))
}
