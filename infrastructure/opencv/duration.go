package opencv

import (
	"fmt"

	"video-toolbox/domain/asset"
)

// durationFrom converts capture properties into a duration
func durationFrom(frames, fps float64) (asset.MediaInfo, error) {
	if fps <= 0 {
		return asset.MediaInfo{}, fmt.Errorf("video reports no frame rate")
	}
	if frames <= 0 {
		return asset.MediaInfo{}, fmt.Errorf("video reports no frames")
	}
	return asset.MediaInfo{DurationSeconds: frames / fps}, nil
}
