package asset

import (
	"path/filepath"
	"time"
)

// Asset is a stored media file plus its metadata record
type Asset struct {
	ID        int64
	OwnerID   string
	Path      string
	Size      int64
	Duration  float64 // seconds
	CreatedAt time.Time
}

// Summary is the client-facing view of an asset
type Summary struct {
	ID       int64   `json:"id"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
}

// Summary returns the client-facing view of the asset
func (a *Asset) Summary() Summary {
	return Summary{ID: a.ID, Size: a.Size, Duration: a.Duration}
}

// Basename returns the file name of the backing file
func (a *Asset) Basename() string {
	return filepath.Base(a.Path)
}

// OwnedBy reports whether the asset belongs to ownerID
func (a *Asset) OwnedBy(ownerID string) bool {
	return a.OwnerID == ownerID
}
