package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"video-toolbox/domain/asset"
)

// Store is an in-process asset.Store. Records are lost on exit; it backs
// the "memory" database driver and tests.
type Store struct {
	mu         sync.RWMutex
	assets     map[int64]*asset.Asset
	links      map[string]*asset.ShareLink
	nextAsset  int64
	nextLink   int64
	now        func() time.Time
	FailCreate error // when set, CreateAsset and CreateShareLink return it
}

// New creates an empty store
func New() *Store {
	return &Store{
		assets: make(map[int64]*asset.Asset),
		links:  make(map[string]*asset.ShareLink),
		now:    time.Now,
	}
}

// CreateAsset implements asset.Store
func (s *Store) CreateAsset(ctx context.Context, a *asset.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreate != nil {
		return s.FailCreate
	}

	s.nextAsset++
	a.ID = s.nextAsset
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	stored := *a
	s.assets[a.ID] = &stored
	return nil
}

// GetAsset implements asset.Store
func (s *Store) GetAsset(ctx context.Context, id int64) (*asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d: %w", id, asset.ErrNotFound)
	}
	found := *a
	return &found, nil
}

// FindAssets implements asset.Store
func (s *Store) FindAssets(ctx context.Context, ids []int64) ([]*asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	found := make([]*asset.Asset, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if a, ok := s.assets[id]; ok {
			c := *a
			found = append(found, &c)
		}
	}
	return found, nil
}

// CreateShareLink implements asset.Store
func (s *Store) CreateShareLink(ctx context.Context, l *asset.ShareLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreate != nil {
		return s.FailCreate
	}
	if _, taken := s.links[l.Token]; taken {
		return asset.ErrTokenCollision
	}

	s.nextLink++
	l.ID = s.nextLink
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	stored := *l
	s.links[l.Token] = &stored
	return nil
}

// GetShareLink implements asset.Store
func (s *Store) GetShareLink(ctx context.Context, token string) (*asset.ShareLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[token]
	if !ok {
		return nil, fmt.Errorf("share link: %w", asset.ErrNotFound)
	}
	found := *l
	return &found, nil
}

// ShareTokenExists implements asset.Store
func (s *Store) ShareTokenExists(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.links[token]
	return ok, nil
}

// Ping implements asset.Store
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// AssetCount returns the number of stored assets
func (s *Store) AssetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

var _ asset.Store = (*Store)(nil)
