//go:build integration

package steps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"video-toolbox/cmd"
	"video-toolbox/domain/asset"
	"video-toolbox/infrastructure/ffmpeg"
)

// scriptedRunner stands in for ffmpeg and ffprobe. Test videos are text
// files holding "duration=<seconds>"; the runner reads and writes that
// format so the real ffmpeg adapters can be exercised end to end.
type scriptedRunner struct {
	mu       sync.Mutex
	failNext bool
	calls    [][]string
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	fail := r.failNext
	r.failNext = false
	r.mu.Unlock()

	if fail {
		return errors.New("exit status 1: Conversion failed!")
	}

	output := args[len(args)-1]

	var duration float64
	if list := argAfter(args, "-f"); list == "concat" {
		total, err := sumConcatList(argAfter(args, "-i"))
		if err != nil {
			return err
		}
		duration = total
	} else {
		ts, err := asset.ParseTimestamp(argAfter(args, "-t"))
		if err != nil {
			return fmt.Errorf("bad -t: %w", err)
		}
		duration = ts.Seconds()
	}

	return writeVideo(output, duration)
}

func (r *scriptedRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if len(args) == 1 && args[0] == "-version" {
		return []byte(name + " version test"), nil
	}

	d, err := readDuration(args[len(args)-1])
	if err != nil {
		return nil, errors.New("exit status 1: Invalid data found when processing input")
	}
	return []byte(fmt.Sprintf(`{"format":{"duration":"%g"}}`, d)), nil
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func sumConcatList(listPath string) (float64, error) {
	f, err := os.Open(listPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var total float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		path := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		path = strings.ReplaceAll(path, `'\''`, "'")
		d, err := readDuration(path)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, scanner.Err()
}

func writeVideo(path string, seconds float64) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("duration=%g", seconds)), 0o644)
}

func readDuration(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	raw, ok := strings.CutPrefix(strings.TrimSpace(string(b)), "duration=")
	if !ok {
		return 0, fmt.Errorf("%s is not a video", path)
	}
	return strconv.ParseFloat(raw, 64)
}

func scriptedEngine(runner *scriptedRunner) cmd.Engine {
	opts := []ffmpeg.Option{ffmpeg.WithCommandRunner(runner), ffmpeg.WithStreamCopy(true)}
	return cmd.Engine{
		Trimmer:      ffmpeg.NewTrimmer(opts...),
		Concatenator: ffmpeg.NewConcatenator(opts...),
		Prober:       ffmpeg.NewProber(opts...),
	}
}

// featureClock advances a millisecond per reading so generated file
// names stay unique, and jumps when a scenario lets time pass
type featureClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFeatureClock() *featureClock {
	return &featureClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *featureClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *featureClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
