package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"video-toolbox/domain/asset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "toolbox.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestStore_AssetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	a := &asset.Asset{OwnerID: "42", Path: "/uploads/42_1.mp4", Size: 2048, Duration: 12.5, CreatedAt: created}
	if err := s.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetAsset(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	if got.OwnerID != "42" || got.Path != a.Path || got.Size != 2048 || got.Duration != 12.5 {
		t.Errorf("GetAsset() = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if _, err := s.GetAsset(ctx, a.ID+100); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("GetAsset(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateAssetDefaultsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	a := &asset.Asset{OwnerID: "1", Path: "/x.mp4"}
	if err := s.CreateAsset(context.Background(), a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	if !a.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, fixed)
	}
}

func TestStore_FindAssets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var ids []int64
	for _, p := range []string{"/a.mp4", "/b.mp4", "/c.mp4"} {
		a := &asset.Asset{OwnerID: "1", Path: p, Size: 1, Duration: 1}
		if err := s.CreateAsset(ctx, a); err != nil {
			t.Fatalf("CreateAsset() error = %v", err)
		}
		ids = append(ids, a.ID)
	}

	tests := []struct {
		name  string
		query []int64
		want  []string
	}{
		{"request order", []int64{ids[2], ids[0]}, []string{"/c.mp4", "/a.mp4"}},
		{"skips unknown", []int64{ids[1], 999}, []string{"/b.mp4"}},
		{"dedupes", []int64{ids[0], ids[0], ids[1]}, []string{"/a.mp4", "/b.mp4"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindAssets(ctx, tt.query)
			if err != nil {
				t.Fatalf("FindAssets() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("FindAssets() returned %d assets, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Path != tt.want[i] {
					t.Errorf("result[%d] = %s, want %s", i, a.Path, tt.want[i])
				}
			}
		})
	}
}

func TestStore_ShareLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := &asset.Asset{OwnerID: "1", Path: "/a.mp4", Size: 1, Duration: 1}
	if err := s.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}

	expires := time.Now().Add(time.Hour).Truncate(time.Microsecond)
	l := &asset.ShareLink{Token: "tok-1", AssetID: a.ID, ExpiresAt: expires}
	if err := s.CreateShareLink(ctx, l); err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}
	if l.ID == 0 {
		t.Error("expected share link id to be assigned")
	}

	got, err := s.GetShareLink(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetShareLink() error = %v", err)
	}
	if got.AssetID != a.ID || !got.ExpiresAt.Equal(expires) {
		t.Errorf("GetShareLink() = %+v", got)
	}

	exists, err := s.ShareTokenExists(ctx, "tok-1")
	if err != nil || !exists {
		t.Errorf("ShareTokenExists(tok-1) = %v, %v", exists, err)
	}
	exists, err = s.ShareTokenExists(ctx, "tok-2")
	if err != nil || exists {
		t.Errorf("ShareTokenExists(tok-2) = %v, %v", exists, err)
	}

	if _, err := s.GetShareLink(ctx, "tok-2"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("GetShareLink(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStore_DuplicateTokenIsCollision(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := &asset.Asset{OwnerID: "1", Path: "/a.mp4", Size: 1, Duration: 1}
	if err := s.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}

	first := &asset.ShareLink{Token: "same", AssetID: a.ID, ExpiresAt: time.Now()}
	if err := s.CreateShareLink(ctx, first); err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}

	second := &asset.ShareLink{Token: "same", AssetID: a.ID, ExpiresAt: time.Now()}
	if err := s.CreateShareLink(ctx, second); !errors.Is(err, asset.ErrTokenCollision) {
		t.Errorf("CreateShareLink(duplicate) error = %v, want ErrTokenCollision", err)
	}
}

func TestStore_SamePathAllowed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 2; i++ {
		a := &asset.Asset{OwnerID: "1", Path: "/out/trimmed_a.mp4", Size: 1, Duration: 1}
		if err := s.CreateAsset(ctx, a); err != nil {
			t.Fatalf("CreateAsset() #%d error = %v", i, err)
		}
	}
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
