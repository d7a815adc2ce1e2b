package asset

import (
	"context"
	"io"
	"time"
)

// Store persists asset and share-link records
type Store interface {
	// CreateAsset inserts a and sets its ID
	CreateAsset(ctx context.Context, a *Asset) error
	// GetAsset returns ErrNotFound when no asset has the id
	GetAsset(ctx context.Context, id int64) (*Asset, error)
	// FindAssets returns the assets matching ids in request order, skipping unknown ids
	FindAssets(ctx context.Context, ids []int64) ([]*Asset, error)

	// CreateShareLink inserts l and sets its ID; returns ErrTokenCollision if the token is taken
	CreateShareLink(ctx context.Context, l *ShareLink) error
	// GetShareLink returns ErrNotFound when no link has the token
	GetShareLink(ctx context.Context, token string) (*ShareLink, error)
	ShareTokenExists(ctx context.Context, token string) (bool, error)

	Ping(ctx context.Context) error
}

// MediaInfo is what the engine reports about a file
type MediaInfo struct {
	DurationSeconds float64
}

// Prober inspects a media file
type Prober interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// Trimmer cuts a window out of a source file into outputPath
type Trimmer interface {
	Trim(ctx context.Context, window *TrimWindow, outputPath string) error
}

// Concatenator joins inputs, in order, into outputPath
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, outputPath string) error
}

// FileInfo is the subset of file metadata delivery needs
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// FileStore is the durable file namespace assets live in
type FileStore interface {
	Exists(path string) bool
	Stat(path string) (FileInfo, error)
	// Save creates path exclusively. An existing path fails with an error
	// matching fs.ErrExist before r is read.
	Save(path string, r io.Reader) (int64, error)
	Open(path string) (io.ReadSeekCloser, error)
	Remove(path string) error
}
