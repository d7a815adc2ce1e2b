package ffmpeg

import (
	"context"
	"fmt"

	"video-toolbox/domain/asset"
)

// Trimmer implements asset.Trimmer using ffmpeg
type Trimmer struct {
	settings
}

// NewTrimmer creates a new FFmpeg-based trimmer
func NewTrimmer(opts ...Option) *Trimmer {
	return &Trimmer{settings: newSettings(opts)}
}

// Trim implements asset.Trimmer. Seeking before -i is fast and, when
// re-encoding, frame accurate.
func (t *Trimmer) Trim(ctx context.Context, window *asset.TrimWindow, outputPath string) error {
	args := []string{
		"-y", // Overwrite output file if it exists
		"-ss", window.StartTimestamp().String(),
		"-i", window.SourcePath,
		"-t", window.DurationTimestamp().String(),
	}
	args = append(args, t.codecArgs()...)
	args = append(args, outputPath)

	if err := t.runner.Run(ctx, t.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg trim failed: %w", err)
	}

	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (t *Trimmer) VerifyInstalled(ctx context.Context) error {
	_, err := t.runner.Output(ctx, t.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Trimmer implements asset.Trimmer
var _ asset.Trimmer = (*Trimmer)(nil)
