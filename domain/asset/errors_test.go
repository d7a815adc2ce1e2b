package asset

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsKind(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrStorage, cause, "failed to save %s", "a.mp4")

	if !errors.Is(err, ErrStorage) {
		t.Error("expected error to match its kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected error to match its cause")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("error should not match an unrelated kind")
	}
	if got := err.Error(); got != "failed to save a.mp4: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if got := Message(err); got != "failed to save a.mp4" {
		t.Errorf("Message() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "classified", err: Errorf(ErrRange, "bad"), want: ErrRange},
		{name: "wrapped classified", err: fmt.Errorf("trim: %w", Errorf(ErrNotFound, "gone")), want: ErrNotFound},
		{name: "bare sentinel", err: fmt.Errorf("lookup: %w", ErrLinkExpired), want: ErrLinkExpired},
		{name: "unclassified", err: errors.New("boom"), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind error
		want bool
	}{
		{ErrValidation, false},
		{ErrNotFound, false},
		{ErrRange, false},
		{ErrLimitExceeded, false},
		{ErrLinkExpired, false},
		{ErrMediaUnreadable, false},
		{ErrTranscodeFailed, true},
		{ErrStorage, true},
	}

	for _, tt := range tests {
		t.Run(KindName(tt.kind), func(t *testing.T) {
			if got := Retryable(Errorf(tt.kind, "x")); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}
