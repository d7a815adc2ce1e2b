//go:build opencv

package opencv

import (
	"context"
	"fmt"

	"video-toolbox/domain/asset"

	"gocv.io/x/gocv"
)

// Prober implements asset.Prober by reading container metadata through OpenCV
type Prober struct{}

// NewProber creates an OpenCV-backed prober
func NewProber() *Prober {
	return &Prober{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return true
}

// Probe implements asset.Prober. Duration is frame count over frame rate,
// which is exact for constant frame rate files.
func (p *Prober) Probe(ctx context.Context, path string) (asset.MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return asset.MediaInfo{}, err
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return asset.MediaInfo{}, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return asset.MediaInfo{}, fmt.Errorf("failed to open video %s", path)
	}

	frames := vc.Get(gocv.VideoCaptureFrameCount)
	fps := vc.Get(gocv.VideoCaptureFPS)

	return durationFrom(frames, fps)
}

// Ensure Prober implements asset.Prober
var _ asset.Prober = (*Prober)(nil)
