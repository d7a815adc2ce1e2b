package ingest

import (
	"context"
	"mime"
	"strings"

	"video-toolbox/domain/asset"
)

// Bounds is the admissible duration window in seconds, inclusive on both ends
type Bounds struct {
	MinDuration float64
	MaxDuration float64
}

// Contains reports whether d lies within the window
func (b Bounds) Contains(d float64) bool {
	return d >= b.MinDuration && d <= b.MaxDuration
}

// Validator judges whether a stored candidate file may become an asset.
// It never deletes anything; cleanup is the caller's job.
type Validator struct {
	prober       asset.Prober
	allowedTypes []string
	bounds       Bounds
}

// NewValidator creates a validator with the given allow-list and duration window
func NewValidator(prober asset.Prober, allowedTypes []string, bounds Bounds) *Validator {
	types := make([]string, len(allowedTypes))
	copy(types, allowedTypes)
	return &Validator{
		prober:       prober,
		allowedTypes: types,
		bounds:       bounds,
	}
}

// CheckContentType verifies the declared media type is on the allow-list.
// Parameters such as "; codecs=..." are ignored.
func (v *Validator) CheckContentType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	for _, allowed := range v.allowedTypes {
		if strings.EqualFold(allowed, mediaType) {
			return nil
		}
	}

	return asset.Errorf(asset.ErrValidation, "Invalid file type. Allowed types: %s", strings.Join(v.allowedTypes, ", "))
}

// Validate checks the content type, probes the file and checks its duration
func (v *Validator) Validate(ctx context.Context, path, contentType string) (asset.MediaInfo, error) {
	if err := v.CheckContentType(contentType); err != nil {
		return asset.MediaInfo{}, err
	}

	info, err := v.prober.Probe(ctx, path)
	if err != nil {
		return asset.MediaInfo{}, asset.Wrap(asset.ErrMediaUnreadable, err, "Failed to process video file.")
	}

	if !v.bounds.Contains(info.DurationSeconds) {
		return asset.MediaInfo{}, asset.Errorf(asset.ErrRange,
			"Video duration must be between %g and %g seconds.", v.bounds.MinDuration, v.bounds.MaxDuration)
	}

	return info, nil
}

// AllowedTypes returns a copy of the allow-list
func (v *Validator) AllowedTypes() []string {
	types := make([]string, len(v.allowedTypes))
	copy(types, v.allowedTypes)
	return types
}
