package asset

import (
	"fmt"
	"path/filepath"
	"time"
)

// TrimOutputPolicy decides where a trim writes its output
type TrimOutputPolicy string

const (
	// TrimOutputDeterministic names the output trimmed_<basename>. Repeated
	// trims of the same source overwrite each other.
	TrimOutputDeterministic TrimOutputPolicy = "deterministic"

	// TrimOutputUnique embeds a high-resolution timestamp so every trim gets its own file
	TrimOutputUnique TrimOutputPolicy = "unique"
)

// ParseTrimOutputPolicy validates a policy name
func ParseTrimOutputPolicy(s string) (TrimOutputPolicy, error) {
	switch p := TrimOutputPolicy(s); p {
	case TrimOutputDeterministic, TrimOutputUnique:
		return p, nil
	case "":
		return TrimOutputDeterministic, nil
	default:
		return "", fmt.Errorf("unknown trim output policy %q: expected %q or %q", s, TrimOutputDeterministic, TrimOutputUnique)
	}
}

// UniquePerRequest reports whether two requests can never share an output path
func (p TrimOutputPolicy) UniquePerRequest() bool {
	return p == TrimOutputUnique
}

// TrimOutputPath returns the output path for trimming sourcePath into dir
func (p TrimOutputPolicy) TrimOutputPath(dir, sourcePath string, now time.Time) string {
	base := filepath.Base(sourcePath)
	if p == TrimOutputUnique {
		return filepath.Join(dir, fmt.Sprintf("trimmed_%d_%s", now.UnixNano(), base))
	}
	return filepath.Join(dir, "trimmed_"+base)
}

// MergeOutputPath returns an owner-scoped, time-stamped path for a concatenation
func MergeOutputPath(dir, ownerID string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("merged_%s_%d.mp4", ownerID, now.UnixNano()))
}

// UploadPath returns the storage path for a freshly uploaded file
func UploadPath(dir, ownerID, originalName string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", ownerID, now.UnixNano(), filepath.Ext(originalName)))
}
