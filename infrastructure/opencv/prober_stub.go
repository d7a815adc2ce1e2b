//go:build !opencv

package opencv

import (
	"context"
	"errors"

	"video-toolbox/domain/asset"
)

// Prober is a stub when OpenCV is not compiled in
type Prober struct{}

// NewProber creates a stub prober (requires building with -tags=opencv)
func NewProber() *Prober {
	return &Prober{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return false
}

// Probe returns an error indicating OpenCV probing is not available
func (p *Prober) Probe(ctx context.Context, path string) (asset.MediaInfo, error) {
	return asset.MediaInfo{}, errors.New("opencv probing requires -tags=opencv build with OpenCV installed")
}

// Ensure Prober implements asset.Prober
var _ asset.Prober = (*Prober)(nil)
