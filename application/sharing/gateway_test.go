package sharing

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
	"time"

	"video-toolbox/domain/asset"
	"video-toolbox/infrastructure/memstore"
)

// mockFiles serves file contents from memory
type mockFiles struct {
	contents map[string]string
	openErr  error
}

type nopSeekCloser struct {
	*strings.Reader
}

func (nopSeekCloser) Close() error { return nil }

func (m *mockFiles) Exists(path string) bool {
	_, ok := m.contents[path]
	return ok
}

func (m *mockFiles) Stat(path string) (asset.FileInfo, error) {
	c, ok := m.contents[path]
	if !ok {
		return asset.FileInfo{}, fs.ErrNotExist
	}
	return asset.FileInfo{Size: int64(len(c)), ModTime: issueNow}, nil
}

func (m *mockFiles) Save(path string, r io.Reader) (int64, error) {
	return 0, errors.New("read only")
}

func (m *mockFiles) Open(path string) (io.ReadSeekCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	c, ok := m.contents[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return nopSeekCloser{strings.NewReader(c)}, nil
}

func (m *mockFiles) Remove(path string) error {
	return errors.New("read only")
}

type gatewayFixture struct {
	store   *memstore.Store
	files   *mockFiles
	gateway *Gateway
	asset   *asset.Asset
}

func newGatewayFixture(t *testing.T, now time.Time) *gatewayFixture {
	t.Helper()
	store, a := seedStore(t)
	files := &mockFiles{contents: map[string]string{a.Path: "fake mp4 bytes"}}
	return &gatewayFixture{
		store:   store,
		files:   files,
		gateway: NewGateway(store, files, WithGatewayClock(func() time.Time { return now })),
		asset:   a,
	}
}

func (f *gatewayFixture) addLink(t *testing.T, token string, assetID int64, expires time.Time) {
	t.Helper()
	if err := f.store.CreateShareLink(context.Background(), &asset.ShareLink{Token: token, AssetID: assetID, ExpiresAt: expires}); err != nil {
		t.Fatal(err)
	}
}

func TestGateway_Open(t *testing.T) {
	f := newGatewayFixture(t, issueNow)
	f.addLink(t, "live", f.asset.ID, issueNow.Add(time.Hour))

	for _, mode := range []Mode{ModeStream, ModeDownload} {
		t.Run(mode.String(), func(t *testing.T) {
			d, err := f.gateway.Open(context.Background(), "live", mode)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer d.Content.Close()

			if d.ContentType != "video/mp4" {
				t.Errorf("ContentType = %q", d.ContentType)
			}
			if d.Size != int64(len("fake mp4 bytes")) {
				t.Errorf("Size = %d", d.Size)
			}
			if d.Name != "a.mp4" {
				t.Errorf("Name = %q", d.Name)
			}
			if d.Mode != mode {
				t.Errorf("Mode = %v, want %v", d.Mode, mode)
			}
			body, _ := io.ReadAll(d.Content)
			if string(body) != "fake mp4 bytes" {
				t.Errorf("body = %q", body)
			}
		})
	}
}

func TestGateway_Resolve_Failures(t *testing.T) {
	f := newGatewayFixture(t, issueNow)
	f.addLink(t, "lapsed", f.asset.ID, issueNow.Add(-time.Second))
	f.addLink(t, "edge", f.asset.ID, issueNow)
	f.addLink(t, "orphan", 404, issueNow.Add(time.Hour))

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantMsg string
	}{
		{name: "unknown token", token: "nope", wantErr: asset.ErrNotFound, wantMsg: "Invalid or expired link."},
		{name: "empty token", token: "", wantErr: asset.ErrNotFound, wantMsg: "Invalid or expired link."},
		{name: "expired", token: "lapsed", wantErr: asset.ErrLinkExpired, wantMsg: "This link has expired."},
		{name: "missing asset", token: "orphan", wantErr: asset.ErrNotFound, wantMsg: "Video not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gateway.Resolve(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if asset.Message(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", asset.Message(err), tt.wantMsg)
			}
		})
	}

	if _, err := f.gateway.Resolve(context.Background(), "edge"); err != nil {
		t.Errorf("link is valid at its expiry instant, got %v", err)
	}
}

func TestGateway_Open_FileProblems(t *testing.T) {
	f := newGatewayFixture(t, issueNow)
	f.addLink(t, "live", f.asset.ID, issueNow.Add(time.Hour))

	f.files.openErr = errors.New("too many open files")
	if _, err := f.gateway.Open(context.Background(), "live", ModeStream); !errors.Is(err, asset.ErrStorage) {
		t.Errorf("Open() error = %v, want ErrStorage", err)
	}

	f.files.openErr = nil
	delete(f.files.contents, f.asset.Path)
	if _, err := f.gateway.Open(context.Background(), "live", ModeStream); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		action  string
		want    Mode
		wantErr bool
	}{
		{"", ModeStream, false},
		{"stream", ModeStream, false},
		{"download", ModeDownload, false},
		{"DOWNLOAD", ModeDownload, false},
		{"delete", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, err := ParseMode(tt.action)
			if tt.wantErr {
				if !errors.Is(err, asset.ErrValidation) {
					t.Errorf("ParseMode(%q) error = %v, want ErrValidation", tt.action, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMode(%q) = %v, %v", tt.action, got, err)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"/uploads/a.mp4":  "video/mp4",
		"/uploads/a.MOV":  "video/quicktime",
		"/uploads/a.webm": "video/webm",
		"/uploads/a":      "video/mp4",
	}
	for path, want := range tests {
		if got := ContentTypeFor(path); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}
