// Package isotime parses the ISO-8601 timestamps carried by prediction feeds.
package isotime

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedTimestamp is returned for any input that is not of the form
// YYYY-MM-DDTHH:MM:SS[.fff](Z|±HH:MM).
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// calendarLayout is matched positionally; 'd' stands for one ASCII digit.
const calendarLayout = "dddd-dd-ddTdd:dd:dd"

// Parse converts s into an absolute instant in UTC with seconds resolution.
// Fractional seconds are skipped. A trailing "Z" or no marker at all means a
// zero offset; "±HH:MM" is the local-minus-UTC offset, so UTC = local - offset.
func Parse(s string) (time.Time, error) {
	if len(s) < len(calendarLayout) {
		return time.Time{}, malformed(s)
	}
	for i := 0; i < len(calendarLayout); i++ {
		want := calendarLayout[i]
		if want == 'd' {
			if !isDigit(s[i]) {
				return time.Time{}, malformed(s)
			}
		} else if s[i] != want {
			return time.Time{}, malformed(s)
		}
	}

	year := digits(s[0:4])
	month := digits(s[5:7])
	day := digits(s[8:10])
	hour := digits(s[11:13])
	minute := digits(s[14:16])
	second := digits(s[17:19])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, malformed(s)
	}

	rest := s[len(calendarLayout):]
	if len(rest) > 0 && rest[0] == '.' {
		i := 1
		for i < len(rest) && isDigit(rest[i]) {
			i++
		}
		rest = rest[i:]
	}

	offset, ok := parseOffset(rest)
	if !ok {
		return time.Time{}, malformed(s)
	}

	base := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalises Feb 30 and friends; those are not real dates.
	if base.Day() != day {
		return time.Time{}, malformed(s)
	}
	return base.Add(-offset), nil
}

func parseOffset(rest string) (time.Duration, bool) {
	switch {
	case rest == "" || rest == "Z":
		return 0, true
	case rest[0] == '+' || rest[0] == '-':
		if len(rest) != 6 || rest[3] != ':' ||
			!isDigit(rest[1]) || !isDigit(rest[2]) || !isDigit(rest[4]) || !isDigit(rest[5]) {
			return 0, false
		}
		hours := digits(rest[1:3])
		minutes := digits(rest[4:6])
		if hours > 23 || minutes > 59 {
			return 0, false
		}
		offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
		if rest[0] == '-' {
			offset = -offset
		}
		return offset, true
	default:
		return 0, false
	}
}

func malformed(s string) error {
	return fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
