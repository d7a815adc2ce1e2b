package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Run executes a command; a failure carries the last line ffmpeg wrote to stderr
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// settings are shared by every engine adapter in this package
type settings struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
	streamCopy  bool
	tempDir     string
}

// Option is a functional option for configuring the engine adapters
type Option func(*settings)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) Option {
	return func(s *settings) {
		if path != "" {
			s.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) Option {
	return func(s *settings) {
		if path != "" {
			s.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) Option {
	return func(s *settings) {
		s.runner = runner
	}
}

// WithStreamCopy copies streams instead of re-encoding. Faster, but cuts
// land on keyframes and merged inputs must share codecs.
func WithStreamCopy(enabled bool) Option {
	return func(s *settings) {
		s.streamCopy = enabled
	}
}

// WithTempDir sets where concat list files are written
func WithTempDir(dir string) Option {
	return func(s *settings) {
		s.tempDir = dir
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) codecArgs() []string {
	if s.streamCopy {
		return []string{"-c", "copy"}
	}
	return []string{"-c:v", "libx264", "-c:a", "aac"}
}

// VerifyInstalled checks that ffmpeg and ffprobe are available
func VerifyInstalled(ctx context.Context, opts ...Option) error {
	s := newSettings(opts)
	if _, err := s.runner.Output(ctx, s.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	if _, err := s.runner.Output(ctx, s.ffprobePath, "-version"); err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}
