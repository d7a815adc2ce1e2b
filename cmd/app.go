package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"video-toolbox/application/ingest"
	"video-toolbox/application/notification"
	"video-toolbox/application/sharing"
	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"
	domainnotification "video-toolbox/domain/notification"
	"video-toolbox/infrastructure/cache"
	"video-toolbox/infrastructure/config"
	"video-toolbox/infrastructure/ffmpeg"
	"video-toolbox/infrastructure/filesystem"
	"video-toolbox/infrastructure/gmail"
	"video-toolbox/infrastructure/memstore"
	"video-toolbox/infrastructure/opencv"
	"video-toolbox/infrastructure/sqlstore"
)

// App is the wired set of services behind every command
type App struct {
	Config    *config.Config
	Store     asset.Store
	Files     asset.FileStore
	Prober    asset.Prober
	Ingest    *ingest.Service
	Transcode *transcode.Service
	Issuer    *sharing.Issuer
	Gateway   *sharing.Gateway
	Notifier  *notification.Service // nil unless email is enabled
	Logger    *slog.Logger

	closers []io.Closer
}

// Engine bundles the external media tool adapters
type Engine struct {
	Trimmer      asset.Trimmer
	Concatenator asset.Concatenator
	Prober       asset.Prober
}

// AppOption overrides a production dependency
type AppOption func(*appBuilder)

type appBuilder struct {
	store  asset.Store
	files  asset.FileStore
	engine *Engine
	sender domainnotification.EmailSender
	prompt io.Writer
	now    func() time.Time
}

// WithStore uses store instead of opening the configured database
func WithStore(store asset.Store) AppOption {
	return func(b *appBuilder) {
		b.store = store
	}
}

// WithFiles replaces the local file store
func WithFiles(files asset.FileStore) AppOption {
	return func(b *appBuilder) {
		b.files = files
	}
}

// WithEngine replaces the ffmpeg adapters
func WithEngine(engine Engine) AppOption {
	return func(b *appBuilder) {
		b.engine = &engine
	}
}

// WithEmailSender replaces the Gmail client when email is enabled
func WithEmailSender(sender domainnotification.EmailSender) AppOption {
	return func(b *appBuilder) {
		b.sender = sender
	}
}

// WithClock sets the time source for file naming and link expiry
func WithClock(now func() time.Time) AppOption {
	return func(b *appBuilder) {
		b.now = now
	}
}

// WithOAuthPrompt sets where the Gmail consent instructions are printed
func WithOAuthPrompt(w io.Writer) AppOption {
	return func(b *appBuilder) {
		b.prompt = w
	}
}

// NewApp wires services from configuration
func NewApp(ctx context.Context, c *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	b := &appBuilder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := &App{Config: c, Logger: logger}

	store, err := app.openStore(ctx, b.store)
	if err != nil {
		return nil, err
	}
	app.Store = store

	app.Files = b.files
	if app.Files == nil {
		if err := filesystem.EnsureDir(c.Media.UploadDirectory); err != nil {
			app.Close()
			return nil, err
		}
		app.Files = filesystem.NewLocal()
	}

	var engine Engine
	if b.engine != nil {
		engine = *b.engine
	} else {
		engine = newEngine(c.Transcode)
	}
	app.Prober = engine.Prober

	trimOutput, err := asset.ParseTrimOutputPolicy(c.Transcode.TrimOutput)
	if err != nil {
		app.Close()
		return nil, err
	}
	mergeDuration, err := transcode.ParseMergeDuration(c.Transcode.MergeDuration)
	if err != nil {
		app.Close()
		return nil, err
	}

	validator := ingest.NewValidator(engine.Prober, c.Media.AllowedTypes, ingest.Bounds{
		MinDuration: c.Media.MinDurationSeconds,
		MaxDuration: c.Media.MaxDurationSeconds,
	})
	app.Ingest = ingest.NewService(validator, store, app.Files, c.Media.UploadDirectory,
		ingest.WithLogger(logger.With("component", "ingest")),
		ingest.WithClock(b.now))

	app.Transcode = transcode.NewService(store, engine.Trimmer, engine.Concatenator, engine.Prober, app.Files,
		transcode.Policy{
			OutputDir:        c.Media.UploadDirectory,
			TrimOutput:       trimOutput,
			MergeDuration:    mergeDuration,
			Timeout:          c.Transcode.Timeout,
			RequireOwnership: c.Transcode.RequireOwnership,
		},
		transcode.WithLogger(logger.With("component", "transcode")),
		transcode.WithClock(b.now))

	app.Issuer = sharing.NewIssuer(store, c.Sharing.MaxDuration, c.Sharing.TokenAttempts,
		sharing.WithIssuerLogger(logger.With("component", "sharing")),
		sharing.WithIssuerClock(b.now))
	app.Gateway = sharing.NewGateway(store, app.Files, sharing.WithGatewayClock(b.now))

	if c.Email.Enabled {
		sender := b.sender
		if sender == nil {
			client, err := gmail.NewClientWithOAuth(ctx,
				domainnotification.Recipient{Name: c.Email.FromName, Address: c.Email.FromAddress},
				gmail.OAuthConfig{
					CredentialsFile: c.Email.CredentialsFile,
					TokenFile:       c.Email.TokenFile,
					Prompt:          b.prompt,
				})
			if err != nil {
				app.Close()
				return nil, fmt.Errorf("failed to create Gmail client: %w", err)
			}
			sender = client
		}
		app.Notifier = notification.NewService(sender, c.Email.SenderName,
			notification.WithDirectory(config.NewDirectory(c.Email)))
	}

	return app, nil
}

// openStore returns the injected store or opens the configured one,
// fronted by Redis when an address is set
func (a *App) openStore(ctx context.Context, injected asset.Store) (asset.Store, error) {
	c := a.Config
	var store asset.Store

	switch {
	case injected != nil:
		store = injected
	case c.Database.Driver == "memory":
		store = memstore.New()
	default:
		s, err := sqlstore.Open(ctx, c.Database.Driver, c.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		a.closers = append(a.closers, s)
		store = s
	}

	if c.Cache.RedisAddr == "" {
		return store, nil
	}

	backend, err := cache.NewRedisBackend(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, backend)
	a.Logger.Info("record cache enabled", "addr", c.Cache.RedisAddr, "ttl", c.Cache.TTL)

	return cache.New(store, backend, c.Cache.TTL, cache.WithLogger(a.Logger.With("component", "cache"))), nil
}

func newEngine(c config.TranscodeConfig) Engine {
	opts := []ffmpeg.Option{
		ffmpeg.WithFFmpegPath(c.FFmpegPath),
		ffmpeg.WithFFprobePath(c.FFprobePath),
		ffmpeg.WithStreamCopy(c.StreamCopy),
	}

	var prober asset.Prober = ffmpeg.NewProber(opts...)
	if c.Prober == "opencv" {
		prober = opencv.NewProber()
	}

	return Engine{
		Trimmer:      ffmpeg.NewTrimmer(opts...),
		Concatenator: ffmpeg.NewConcatenator(opts...),
		Prober:       prober,
	}
}

// VerifyEngine checks the media tools respond within a few seconds
func (a *App) VerifyEngine(ctx context.Context) error {
	if a.Config.Transcode.Prober == "opencv" && !opencv.Available() {
		return errors.New("prober is opencv but this binary was built without -tags=opencv")
	}
	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ffmpeg.VerifyInstalled(verifyCtx,
		ffmpeg.WithFFmpegPath(a.Config.Transcode.FFmpegPath),
		ffmpeg.WithFFprobePath(a.Config.Transcode.FFprobePath),
	); err != nil {
		return fmt.Errorf("ffmpeg verification failed: %w", err)
	}
	return nil
}

// Close releases the store and cache connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
