package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-toolbox/domain/asset"
)

// Concatenator implements asset.Concatenator with the ffmpeg concat demuxer
type Concatenator struct {
	settings
}

// NewConcatenator creates a new FFmpeg-based concatenator
func NewConcatenator(opts ...Option) *Concatenator {
	return &Concatenator{settings: newSettings(opts)}
}

// Concat implements asset.Concatenator
func (c *Concatenator) Concat(ctx context.Context, inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("ffmpeg concat failed: no inputs")
	}

	listPath, err := c.writeList(inputs)
	if err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}
	args = append(args, c.codecArgs()...)
	args = append(args, outputPath)

	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	return nil
}

// writeList writes a concat demuxer list file, one absolute path per line
func (c *Concatenator) writeList(inputs []string) (string, error) {
	f, err := os.CreateTemp(c.tempDir, "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create concat list: %w", err)
	}

	if _, err := f.WriteString(ConcatList(inputs)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	return f.Name(), nil
}

// ConcatList renders the demuxer list for inputs
func ConcatList(inputs []string) string {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// Ensure Concatenator implements asset.Concatenator
var _ asset.Concatenator = (*Concatenator)(nil)
