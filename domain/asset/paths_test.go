package asset

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTrimOutputPolicy_TrimOutputPath(t *testing.T) {
	now := time.Unix(0, 1700000000123456789)

	tests := []struct {
		name   string
		policy TrimOutputPolicy
		want   string
	}{
		{name: "deterministic", policy: TrimOutputDeterministic, want: filepath.Join("uploads", "trimmed_7_1.mp4")},
		{name: "unique", policy: TrimOutputUnique, want: filepath.Join("uploads", "trimmed_1700000000123456789_7_1.mp4")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.TrimOutputPath("uploads", "/data/uploads/7_1.mp4", now)
			if got != tt.want {
				t.Errorf("TrimOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrimOutputPolicy(t *testing.T) {
	if p, err := ParseTrimOutputPolicy(""); err != nil || p != TrimOutputDeterministic {
		t.Errorf("empty policy = %q, %v; want deterministic", p, err)
	}
	if p, err := ParseTrimOutputPolicy("unique"); err != nil || !p.UniquePerRequest() {
		t.Errorf("unique policy = %q, %v", p, err)
	}
	if _, err := ParseTrimOutputPolicy("random"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestMergeOutputPath(t *testing.T) {
	a := MergeOutputPath("uploads", "42", time.Unix(0, 1))
	b := MergeOutputPath("uploads", "42", time.Unix(0, 2))
	if a == b {
		t.Error("merge outputs at different instants must differ")
	}
	if want := filepath.Join("uploads", "merged_42_1.mp4"); a != want {
		t.Errorf("MergeOutputPath() = %q, want %q", a, want)
	}
}

func TestUploadPath(t *testing.T) {
	got := UploadPath("uploads", "42", "holiday clip.MOV", time.Unix(0, 99))
	if want := filepath.Join("uploads", "42_99.MOV"); got != want {
		t.Errorf("UploadPath() = %q, want %q", got, want)
	}
}

func TestShareLink_Expired(t *testing.T) {
	expires := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := &ShareLink{ExpiresAt: expires}

	if l.Expired(expires.Add(-time.Second)) {
		t.Error("link should be valid before expiry")
	}
	if l.Expired(expires) {
		t.Error("link should be valid at the expiry instant")
	}
	if !l.Expired(expires.Add(time.Nanosecond)) {
		t.Error("link should be expired after expiry")
	}
}
