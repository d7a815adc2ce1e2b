package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"video-toolbox/domain/asset"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("video-toolbox/cache")

// Store is a read-through cache in front of an asset.Store. Asset and
// share-link records never change after creation, so entries are only
// ever expired by TTL.
type Store struct {
	asset.Store
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger for cache failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps inner with backend
func New(inner asset.Store, backend Backend, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		Store:   inner,
		backend: backend,
		ttl:     ttl,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAsset implements asset.Store
func (s *Store) GetAsset(ctx context.Context, id int64) (*asset.Asset, error) {
	key := fmt.Sprintf("asset:%d", id)

	var cached asset.Asset
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	a, err := s.Store.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, a)
	return a, nil
}

// GetShareLink implements asset.Store
func (s *Store) GetShareLink(ctx context.Context, token string) (*asset.ShareLink, error) {
	key := "share:" + token

	var cached asset.ShareLink
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	l, err := s.Store.GetShareLink(ctx, token)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, l)
	return l, nil
}

func (s *Store) lookup(ctx context.Context, key string, dst any) bool {
	ctx, span := tracer.Start(ctx, "cache.get",
		trace.WithAttributes(attribute.String("key", key)),
	)
	defer span.End()

	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		span.SetAttributes(attribute.String("cache_status", "miss"))
		return false
	} else if err != nil {
		span.RecordError(err)
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		span.RecordError(err)
		s.logger.Warn("cache entry unreadable", "key", key, "error", err)
		return false
	}

	span.SetAttributes(attribute.String("cache_status", "hit"))
	return true
}

func (s *Store) remember(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.backend.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

var _ asset.Store = (*Store)(nil)
