package sharing

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"video-toolbox/domain/asset"
)

// Mode is how shared bytes are delivered
type Mode int

const (
	// ModeStream serves inline for progressive playback
	ModeStream Mode = iota
	// ModeDownload serves as an attachment named after the file
	ModeDownload
)

// ParseMode reads the action query value; empty means stream
func ParseMode(action string) (Mode, error) {
	switch strings.ToLower(action) {
	case "", "stream":
		return ModeStream, nil
	case "download":
		return ModeDownload, nil
	default:
		return 0, asset.Errorf(asset.ErrValidation, "Invalid action %q. Use stream or download.", action)
	}
}

func (m Mode) String() string {
	if m == ModeDownload {
		return "download"
	}
	return "stream"
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// ContentTypeFor returns the media type served for a stored file
func ContentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "video/mp4"
}

// Delivery is an opened shared file ready to be written to a client.
// The caller must close Content.
type Delivery struct {
	Asset       *asset.Asset
	Mode        Mode
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReadSeekCloser
}

// Gateway redeems share tokens
type Gateway struct {
	store asset.Store
	files asset.FileStore
	now   func() time.Time
}

// GatewayOption is a functional option for configuring Gateway
type GatewayOption func(*Gateway)

// WithGatewayClock sets the time source expiry is checked against
func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a gateway over the given store and files
func NewGateway(store asset.Store, files asset.FileStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store: store,
		files: files,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Resolve maps a token to its asset, refusing unknown and lapsed links
func (g *Gateway) Resolve(ctx context.Context, token string) (*asset.Asset, error) {
	if token == "" {
		return nil, asset.Errorf(asset.ErrNotFound, "Invalid or expired link.")
	}

	link, err := g.store.GetShareLink(ctx, token)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, asset.Wrap(asset.ErrNotFound, err, "Invalid or expired link.")
		}
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to look up share link")
	}

	if link.Expired(g.now()) {
		return nil, asset.Errorf(asset.ErrLinkExpired, "This link has expired.")
	}

	a, err := g.store.GetAsset(ctx, link.AssetID)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, asset.Wrap(asset.ErrNotFound, err, "Video not found.")
		}
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to look up video")
	}

	return a, nil
}

// Open resolves the token and opens the backing file for delivery
func (g *Gateway) Open(ctx context.Context, token string, mode Mode) (*Delivery, error) {
	a, err := g.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	info, err := g.files.Stat(a.Path)
	if err != nil {
		return nil, fileError(err)
	}

	content, err := g.files.Open(a.Path)
	if err != nil {
		return nil, fileError(err)
	}

	return &Delivery{
		Asset:       a,
		Mode:        mode,
		Name:        a.Basename(),
		ContentType: ContentTypeFor(a.Path),
		Size:        info.Size,
		ModTime:     info.ModTime,
		Content:     content,
	}, nil
}

func fileError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return asset.Wrap(asset.ErrNotFound, err, "Video not found.")
	}
	return asset.Wrap(asset.ErrStorage, err, "failed to open video")
}
