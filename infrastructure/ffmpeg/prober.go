package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"video-toolbox/domain/asset"
)

// Prober implements asset.Prober using ffprobe
type Prober struct {
	settings
}

// NewProber creates a new ffprobe-based prober
func NewProber(opts ...Option) *Prober {
	return &Prober{settings: newSettings(opts)}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe implements asset.Prober
func (p *Prober) Probe(ctx context.Context, path string) (asset.MediaInfo, error) {
	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return asset.MediaInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (asset.MediaInfo, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return asset.MediaInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if parsed.Format.Duration == "" || parsed.Format.Duration == "N/A" {
		return asset.MediaInfo{}, fmt.Errorf("ffprobe reported no duration")
	}

	duration, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || duration < 0 {
		return asset.MediaInfo{}, fmt.Errorf("invalid duration %q from ffprobe", parsed.Format.Duration)
	}

	return asset.MediaInfo{DurationSeconds: duration}, nil
}

// Ensure Prober implements asset.Prober
var _ asset.Prober = (*Prober)(nil)
