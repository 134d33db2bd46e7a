package transit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func predictionsBody(times ...string) []byte {
	items := make([]string, 0, len(times))
	for _, ts := range times {
		items = append(items, fmt.Sprintf(`{"attributes":{"arrival_time":%q}}`, ts))
	}
	return []byte(`{"data":[` + strings.Join(items, ",") + `]}`)
}

func TestExtractSortsAndFilters(t *testing.T) {
	body := predictionsBody(
		"2024-01-01T12:10:00Z",
		"2024-01-01T11:59:45Z", // 15s ago, kept
		"2024-01-01T11:59:00Z", // 60s ago, stale
		"2024-01-01T07:03:00-05:00",
		"2024-01-01T12:10:00Z", // duplicate
	)

	got, err := ExtractPredictions(body, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		time.Date(2024, 1, 1, 11, 59, 45, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 3, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 10, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d instants (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("instant %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExtractPrefersArrivalOverDeparture(t *testing.T) {
	body := []byte(`{"data":[
		{"attributes":{"arrival_time":"2024-01-01T12:05:00Z","departure_time":"2024-01-01T12:06:00Z"}},
		{"attributes":{"arrival_time":null,"departure_time":"2024-01-01T12:20:00Z"}}
	]}`)

	got, err := ExtractPredictions(body, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Minute() != 5 || got[1].Minute() != 20 {
		t.Fatalf("unexpected instants: %v", got)
	}
}

func TestExtractSkipsBadItems(t *testing.T) {
	body := []byte(`{"data":[
		42,
		{"attributes":"nope"},
		{"relationships":{}},
		{"attributes":{"arrival_time":"not a time"}},
		{"attributes":{"arrival_time":17}},
		{"attributes":{"departure_time":"2024-01-01T12:01:00Z"}}
	]}`)

	got, err := ExtractPredictions(body, testNow)
	if err != nil {
		t.Fatalf("malformed items must not fail the batch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one usable instant, got %v", got)
	}
}

func TestExtractCapsAtMaxPredictions(t *testing.T) {
	var times []string
	for i := 12; i >= 1; i-- {
		times = append(times, testNow.Add(time.Duration(i)*time.Minute).Format(time.RFC3339))
	}

	got, err := ExtractPredictions(predictionsBody(times...), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxPredictions {
		t.Fatalf("got %d instants, want %d", len(got), MaxPredictions)
	}
	if !got[0].Equal(testNow.Add(time.Minute)) {
		t.Fatalf("cap must keep the earliest instants, first = %s", got[0])
	}
}

func TestExtractOrderedAndFresh(t *testing.T) {
	times := []string{
		"2024-01-01T12:30:00Z", "2024-01-01T11:00:00Z", "2024-01-01T12:00:10Z",
		"2024-01-01T12:00:10Z", "2024-01-01T11:59:31Z", "2024-01-01T13:00:00+01:00",
	}
	got, err := ExtractPredictions(predictionsBody(times...), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, at := range got {
		if at.Before(testNow.Add(-StaleTolerance)) {
			t.Fatalf("instant %s is older than the stale tolerance", at)
		}
		if i > 0 && at.Before(got[i-1]) {
			t.Fatalf("instants not ascending: %v", got)
		}
	}
}

func TestExtractEmptyIsNotAnError(t *testing.T) {
	got, err := ExtractPredictions([]byte(`{"data":[]}`), testNow)
	if err != nil {
		t.Fatalf("empty data must succeed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no instants, got %v", got)
	}
}

func TestExtractUnparsable(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`{"data":[{"attributes":`, // truncated body
		`{"data":{}}`,
		`{"data":null}`,
		`{"errors":[]}`,
		`[1,2,3]`,
		`null`,
	}
	for _, body := range cases {
		_, err := ExtractPredictions([]byte(body), testNow)
		if !errors.Is(err, ErrUnparsableResponse) {
			t.Fatalf("ExtractPredictions(%q) error = %v, want ErrUnparsableResponse", body, err)
		}
	}
}

func TestMinutesUntilRoundsUp(t *testing.T) {
	cases := []struct {
		offset time.Duration
		want   int
	}{
		{61 * time.Second, 2},
		{60 * time.Second, 1},
		{time.Second, 1},
		{0, 0},
		{-30 * time.Second, 0},
		{-61 * time.Second, -1},
	}
	for _, tc := range cases {
		if got := MinutesUntil(testNow.Add(tc.offset), testNow); got != tc.want {
			t.Fatalf("MinutesUntil(now%+v) = %d, want %d", tc.offset, got, tc.want)
		}
	}
}

func TestArrivalsFromCapsAndDropsNegative(t *testing.T) {
	instants := []time.Time{
		testNow.Add(-2 * time.Minute),
		testNow.Add(61 * time.Second),
		testNow.Add(5 * time.Minute),
		testNow.Add(9 * time.Minute),
		testNow.Add(15 * time.Minute),
	}

	a := ArrivalsFrom(instants, testNow)
	if got := a.Minutes(); len(got) != 3 || got[0] != 2 || got[1] != 5 || got[2] != 9 {
		t.Fatalf("unexpected arrivals %v", got)
	}
}

func TestArrivalsJSON(t *testing.T) {
	b, err := json.Marshal(Snapshot{Mode: ModeRail, Arrivals: ArrivalsOf(1, 4)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"arrivals":[1,4]`) {
		t.Fatalf("unexpected JSON %s", b)
	}

	empty, _ := json.Marshal(Snapshot{})
	if !strings.Contains(string(empty), `"arrivals":[]`) {
		t.Fatalf("empty arrivals must encode as [], got %s", empty)
	}

	var back Snapshot
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Arrivals.Len() != 2 || back.Arrivals.At(1) != 4 {
		t.Fatalf("unexpected decoded arrivals %v", back.Arrivals.Minutes())
	}
}
