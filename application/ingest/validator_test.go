package ingest

import (
	"context"
	"errors"
	"testing"

	"video-toolbox/domain/asset"
)

func TestValidator_CheckContentType(t *testing.T) {
	v := NewValidator(&mockProber{}, []string{"video/mp4", "video/webm"}, Bounds{})

	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{"video/mp4", false},
		{"VIDEO/MP4", false},
		{"video/webm; codecs=vp9", false},
		{"video/quicktime", true},
		{"", true},
		{"application/octet-stream", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			err := v.CheckContentType(tt.contentType)
			if tt.wantErr && !errors.Is(err, asset.ErrValidation) {
				t.Errorf("CheckContentType(%q) error = %v, want ErrValidation", tt.contentType, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckContentType(%q) unexpected error: %v", tt.contentType, err)
			}
		})
	}
}

func TestValidator_Validate_BoundsAreInclusive(t *testing.T) {
	for _, d := range []float64{10, 300} {
		v := NewValidator(&mockProber{duration: d}, []string{"video/mp4"}, Bounds{MinDuration: 10, MaxDuration: 300})
		info, err := v.Validate(context.Background(), "/uploads/a.mp4", "video/mp4")
		if err != nil {
			t.Errorf("Validate() with duration %v error = %v", d, err)
		}
		if info.DurationSeconds != d {
			t.Errorf("DurationSeconds = %v, want %v", info.DurationSeconds, d)
		}
	}
}

func TestValidator_AllowedTypesIsACopy(t *testing.T) {
	types := []string{"video/mp4"}
	v := NewValidator(&mockProber{}, types, Bounds{})
	types[0] = "text/plain"

	if err := v.CheckContentType("video/mp4"); err != nil {
		t.Errorf("allow-list should not change with the caller's slice: %v", err)
	}
	v.AllowedTypes()[0] = "text/plain"
	if err := v.CheckContentType("video/mp4"); err != nil {
		t.Errorf("allow-list should not change through AllowedTypes(): %v", err)
	}
}
