package asset

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Timestamp is a position within a video, held in milliseconds
type Timestamp struct {
	millis int64
}

// clockRegex matches HH:MM:SS with optional fractional seconds
var clockRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?$`)

// TimestampFromSeconds builds a Timestamp from a seconds value, rounded to the millisecond
func TimestampFromSeconds(seconds float64) Timestamp {
	ms := math.Round(seconds * 1000)
	switch {
	case ms >= math.MaxInt64:
		return Timestamp{millis: math.MaxInt64}
	case ms <= math.MinInt64:
		return Timestamp{millis: math.MinInt64}
	}
	return Timestamp{millis: int64(ms)}
}

// ParseTimestamp accepts either plain seconds ("5", "12.5") or HH:MM:SS[.mmm]
func ParseTimestamp(s string) (Timestamp, error) {
	if matches := clockRegex.FindStringSubmatch(s); matches != nil {
		hours, _ := strconv.ParseInt(matches[1], 10, 64)
		minutes, _ := strconv.ParseInt(matches[2], 10, 64)
		seconds, _ := strconv.ParseInt(matches[3], 10, 64)

		if minutes > 59 {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q: minutes must be 0-59", s)
		}
		if seconds > 59 {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q: seconds must be 0-59", s)
		}

		var millis int64
		if frac := matches[4]; frac != "" {
			for len(frac) < 3 {
				frac += "0"
			}
			millis, _ = strconv.ParseInt(frac, 10, 64)
		}

		return Timestamp{millis: ((hours*60+minutes)*60+seconds)*1000 + millis}, nil
	}

	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Timestamp{}, fmt.Errorf("invalid timestamp format %q: expected seconds or HH:MM:SS[.mmm]", s)
	}
	if seconds < 0 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: must not be negative", s)
	}
	return TimestampFromSeconds(seconds), nil
}

// String returns the timestamp in HH:MM:SS.mmm format, as ffmpeg accepts it
func (t Timestamp) String() string {
	ms := t.millis
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// Seconds returns the timestamp as fractional seconds
func (t Timestamp) Seconds() float64 {
	return float64(t.millis) / 1000
}

// IsZero returns true if the timestamp is at the very start
func (t Timestamp) IsZero() bool {
	return t.millis == 0
}

// Before returns true if t is before other
func (t Timestamp) Before(other Timestamp) bool {
	return t.millis < other.millis
}

// After returns true if t is after other
func (t Timestamp) After(other Timestamp) bool {
	return t.millis > other.millis
}
