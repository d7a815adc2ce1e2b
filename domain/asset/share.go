package asset

import "time"

// ShareLink is an opaque, time-limited credential granting access to one asset
type ShareLink struct {
	ID        int64
	Token     string
	AssetID   int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the link has lapsed at now.
// A link is still valid at the exact expiry instant.
func (l *ShareLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
