package asset

import (
	"strings"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMillis int64
		wantErr    bool
		errMsg     string
	}{
		{name: "clock format", input: "01:30:45", wantMillis: 5445000},
		{name: "clock with fraction", input: "00:00:05.250", wantMillis: 5250},
		{name: "short fraction is padded", input: "00:00:05.5", wantMillis: 5500},
		{name: "all zeros", input: "00:00:00", wantMillis: 0},
		{name: "large hours value", input: "100:00:00", wantMillis: 360000000},
		{name: "integer seconds", input: "5", wantMillis: 5000},
		{name: "fractional seconds", input: "12.5", wantMillis: 12500},
		{name: "rounds to millisecond", input: "0.0004", wantMillis: 0},
		{name: "minutes out of range", input: "00:60:00", wantErr: true, errMsg: "minutes must be 0-59"},
		{name: "seconds out of range", input: "00:00:60", wantErr: true, errMsg: "seconds must be 0-59"},
		{name: "negative seconds", input: "-1", wantErr: true, errMsg: "must not be negative"},
		{name: "too few clock parts", input: "01:30", wantErr: true, errMsg: "invalid timestamp format"},
		{name: "wrong separator", input: "01-30-45", wantErr: true, errMsg: "invalid timestamp format"},
		{name: "empty string", input: "", wantErr: true, errMsg: "invalid timestamp format"},
		{name: "not a number", input: "NaN", wantErr: true, errMsg: "invalid timestamp format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) expected error, got nil", tt.input)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseTimestamp(%q) error = %v, want containing %q", tt.input, err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if got.millis != tt.wantMillis {
				t.Errorf("ParseTimestamp(%q) = %dms, want %dms", tt.input, got.millis, tt.wantMillis)
			}
		})
	}
}

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{5, "00:00:05.000"},
		{5.25, "00:00:05.250"},
		{3725.5, "01:02:05.500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := TimestampFromSeconds(tt.seconds).String(); got != tt.want {
				t.Errorf("TimestampFromSeconds(%v).String() = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestTimestamp_Comparisons(t *testing.T) {
	early := TimestampFromSeconds(1)
	late := TimestampFromSeconds(2)

	if !early.Before(late) {
		t.Error("expected 1s to be before 2s")
	}
	if !late.After(early) {
		t.Error("expected 2s to be after 1s")
	}
	if early.Before(early) || early.After(early) {
		t.Error("a timestamp is neither before nor after itself")
	}
	if !TimestampFromSeconds(0).IsZero() {
		t.Error("expected zero timestamp")
	}
	if got := TimestampFromSeconds(1.5).Seconds(); got != 1.5 {
		t.Errorf("Seconds() = %v, want 1.5", got)
	}
}

func TestTimestampFromSeconds_Saturates(t *testing.T) {
	if got := TimestampFromSeconds(1e300); got.Seconds() <= 0 {
		t.Errorf("TimestampFromSeconds(1e300).Seconds() = %v, want a large positive value", got.Seconds())
	}
	if got := TimestampFromSeconds(-1e300); got.Seconds() >= 0 {
		t.Errorf("TimestampFromSeconds(-1e300).Seconds() = %v, want a large negative value", got.Seconds())
	}
	if got := TimestampFromSeconds(9999999999).Seconds(); got != 9999999999 {
		t.Errorf("TimestampFromSeconds(9999999999).Seconds() = %v", got)
	}
}
