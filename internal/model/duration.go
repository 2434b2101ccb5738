package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that accepts several JSON spellings:
// a Go duration string ("720h"), an ISO-8601 duration ("PT720H", "P30D"),
// or a bare number of milliseconds.
type Duration time.Duration

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON encodes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("duration must be a string or integer milliseconds: %w", err)
		}
		if ms > maxMillis || ms < -maxMillis {
			return fmt.Errorf("duration of %d milliseconds is out of range", ms)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ParseDuration parses a Go duration string or an ISO-8601 duration of the
// form PnDTnHnMnS. Years, months and weeks are not supported since their
// length is calendar dependent.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "P") && !strings.HasPrefix(upper, "-P") {
		return time.ParseDuration(s)
	}

	neg := false
	if upper[0] == '-' {
		neg = true
		upper = upper[1:]
	}
	rest := upper[1:]
	if rest == "" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}

	var total time.Duration
	inTime := false
	num := ""
	for _, c := range rest {
		switch {
		case c >= '0' && c <= '9' || c == '.':
			num += string(c)
		case c == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
			}
			inTime = true
		default:
			if num == "" {
				return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
			}
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
			}
			var unit time.Duration
			switch {
			case c == 'D' && !inTime:
				unit = 24 * time.Hour
			case c == 'H' && inTime:
				unit = time.Hour
			case c == 'M' && inTime:
				unit = time.Minute
			case c == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("unsupported ISO-8601 duration unit %q in %q", c, s)
			}
			part := f * float64(unit)
			if part >= math.MaxInt64-float64(total) {
				return 0, fmt.Errorf("ISO-8601 duration %q is out of range", s)
			}
			total += time.Duration(part)
			num = ""
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	if neg {
		total = -total
	}
	return total, nil
}
