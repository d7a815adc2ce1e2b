package sharing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"video-toolbox/domain/asset"

	"github.com/google/uuid"
)

// TokenSource produces a candidate share token
type TokenSource func() (string, error)

// RandomToken returns a version 4 UUID drawn from crypto/rand
func RandomToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Issuer mints share links bound to an asset and an expiry instant
type Issuer struct {
	store       asset.Store
	maxDuration time.Duration
	attempts    int
	newToken    TokenSource
	now         func() time.Time
	logger      *slog.Logger
}

// IssuerOption is a functional option for configuring Issuer
type IssuerOption func(*Issuer)

// WithTokenSource replaces the random token generator
func WithTokenSource(src TokenSource) IssuerOption {
	return func(i *Issuer) {
		i.newToken = src
	}
}

// WithIssuerClock sets the time source expiry is computed from
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithIssuerLogger sets the logger
func WithIssuerLogger(logger *slog.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// NewIssuer creates an issuer allowing links up to maxDuration and trying
// at most attempts candidate tokens per link.
func NewIssuer(store asset.Store, maxDuration time.Duration, attempts int, opts ...IssuerOption) *Issuer {
	if attempts < 1 {
		attempts = 1
	}
	i := &Issuer{
		store:       store,
		maxDuration: maxDuration,
		attempts:    attempts,
		newToken:    RandomToken,
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// IssueInput names the asset to share. A nil ExpiresIn means the maximum.
type IssueInput struct {
	AssetID   int64
	ExpiresIn *time.Duration
}

// MaxDuration returns the longest permitted share duration
func (i *Issuer) MaxDuration() time.Duration {
	return i.maxDuration
}

// Issue mints a new share link for an existing asset
func (i *Issuer) Issue(ctx context.Context, in IssueInput) (*asset.ShareLink, error) {
	if in.AssetID == 0 {
		return nil, asset.Errorf(asset.ErrValidation, "video_id is required.")
	}

	if _, err := i.store.GetAsset(ctx, in.AssetID); err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, asset.Wrap(asset.ErrNotFound, err, "Video with the given ID does not exist.")
		}
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to look up video")
	}

	duration := i.maxDuration
	if in.ExpiresIn != nil {
		duration = *in.ExpiresIn
	}
	if duration <= 0 {
		return nil, asset.Errorf(asset.ErrValidation, "expiry_duration must be a positive number of seconds.")
	}
	if duration > i.maxDuration {
		return nil, asset.Errorf(asset.ErrLimitExceeded, "Expiry time cannot exceed %d seconds.", int64(i.maxDuration/time.Second))
	}

	for attempt := 1; attempt <= i.attempts; attempt++ {
		token, err := i.newToken()
		if err != nil {
			return nil, asset.Wrap(asset.ErrStorage, err, "failed to generate share token")
		}

		taken, err := i.store.ShareTokenExists(ctx, token)
		if err != nil {
			return nil, asset.Wrap(asset.ErrStorage, err, "failed to check share token")
		}
		if taken {
			i.logger.Warn("share token collision, regenerating", "attempt", attempt)
			continue
		}

		now := i.now()
		link := &asset.ShareLink{
			Token:     token,
			AssetID:   in.AssetID,
			ExpiresAt: now.Add(duration),
			CreatedAt: now,
		}

		err = i.store.CreateShareLink(ctx, link)
		if errors.Is(err, asset.ErrTokenCollision) {
			i.logger.Warn("share token taken concurrently, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, asset.Wrap(asset.ErrStorage, err, "failed to record share link")
		}

		return link, nil
	}

	return nil, asset.Errorf(asset.ErrStorage, "could not allocate a unique share token after %d attempts", i.attempts)
}
