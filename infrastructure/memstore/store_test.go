package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-toolbox/domain/asset"
)

func TestStore_Assets(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &asset.Asset{OwnerID: "7", Path: "/uploads/a.mp4", Size: 10, Duration: 5}
	b := &asset.Asset{OwnerID: "7", Path: "/uploads/b.mp4", Size: 20, Duration: 8}
	for _, x := range []*asset.Asset{a, b} {
		if err := s.CreateAsset(ctx, x); err != nil {
			t.Fatalf("CreateAsset() error = %v", err)
		}
	}
	if a.ID == b.ID || a.ID == 0 {
		t.Fatalf("expected distinct non-zero ids, got %d and %d", a.ID, b.ID)
	}

	got, err := s.GetAsset(ctx, b.ID)
	if err != nil || got.Path != b.Path {
		t.Fatalf("GetAsset() = %+v, %v", got, err)
	}

	if _, err := s.GetAsset(ctx, 99); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("GetAsset(99) error = %v, want ErrNotFound", err)
	}

	found, _ := s.FindAssets(ctx, []int64{b.ID, 99, a.ID, b.ID})
	if len(found) != 2 || found[0].ID != b.ID || found[1].ID != a.ID {
		t.Errorf("FindAssets() returned %d assets in wrong order", len(found))
	}
}

func TestStore_ShareLinks(t *testing.T) {
	ctx := context.Background()
	s := New()

	l := &asset.ShareLink{Token: "abc", AssetID: 1, ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.CreateShareLink(ctx, l); err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}

	dup := &asset.ShareLink{Token: "abc", AssetID: 2, ExpiresAt: time.Now()}
	if err := s.CreateShareLink(ctx, dup); !errors.Is(err, asset.ErrTokenCollision) {
		t.Errorf("duplicate token error = %v, want ErrTokenCollision", err)
	}

	if ok, _ := s.ShareTokenExists(ctx, "abc"); !ok {
		t.Error("expected token to exist")
	}
	if _, err := s.GetShareLink(ctx, "nope"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("GetShareLink(nope) error = %v, want ErrNotFound", err)
	}
}
