package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"video-toolbox/domain/asset"
	"video-toolbox/infrastructure/memstore"
)

type mapBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMapBackend() *mapBackend {
	return &mapBackend{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mapBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *mapBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

// countingStore counts reads that reach the underlying store
type countingStore struct {
	*memstore.Store
	assetReads int
	linkReads  int
}

func (c *countingStore) GetAsset(ctx context.Context, id int64) (*asset.Asset, error) {
	c.assetReads++
	return c.Store.GetAsset(ctx, id)
}

func (c *countingStore) GetShareLink(ctx context.Context, token string) (*asset.ShareLink, error) {
	c.linkReads++
	return c.Store.GetShareLink(ctx, token)
}

func TestStore_GetAssetReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	backend := newMapBackend()
	s := New(inner, backend, 10*time.Minute)

	a := &asset.Asset{OwnerID: "3", Path: "/uploads/a.mp4", Size: 5, Duration: 7.5}
	if err := s.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := s.GetAsset(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetAsset() error = %v", err)
		}
		if got.Path != a.Path || got.Duration != 7.5 || got.OwnerID != "3" {
			t.Errorf("GetAsset() = %+v", got)
		}
	}

	if inner.assetReads != 1 {
		t.Errorf("store reads = %d, want 1", inner.assetReads)
	}
	if backend.ttls["asset:1"] != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", backend.ttls["asset:1"])
	}
}

func TestStore_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	s := New(inner, newMapBackend(), time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := s.GetShareLink(ctx, "missing"); !errors.Is(err, asset.ErrNotFound) {
			t.Fatalf("GetShareLink() error = %v, want ErrNotFound", err)
		}
	}
	if inner.linkReads != 2 {
		t.Errorf("store reads = %d, want 2", inner.linkReads)
	}
}

func TestStore_BackendFailuresFallThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	backend := newMapBackend()
	backend.getErr = errors.New("connection refused")
	backend.setErr = errors.New("connection refused")
	s := New(inner, backend, time.Minute)

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := s.CreateShareLink(ctx, &asset.ShareLink{Token: "t", AssetID: 1, ExpiresAt: expires}); err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}

	got, err := s.GetShareLink(ctx, "t")
	if err != nil {
		t.Fatalf("GetShareLink() error = %v", err)
	}
	if !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}
}

func TestStore_CorruptEntryIgnored(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	backend := newMapBackend()
	s := New(inner, backend, time.Minute)

	a := &asset.Asset{OwnerID: "1", Path: "/a.mp4"}
	if err := s.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	backend.entries["asset:1"] = []byte("{not json")

	got, err := s.GetAsset(ctx, a.ID)
	if err != nil || got.Path != "/a.mp4" {
		t.Fatalf("GetAsset() = %+v, %v", got, err)
	}
	if inner.assetReads != 1 {
		t.Errorf("store reads = %d, want 1", inner.assetReads)
	}
}
