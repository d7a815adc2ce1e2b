package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-toolbox/infrastructure/auth"
	"video-toolbox/infrastructure/httpapi"
	"video-toolbox/infrastructure/tracing"

	"github.com/spf13/cobra"
)

var (
	serveAddress    string
	serveSkipVerify bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the video API under /api/v1.0.

The server stops gracefully on SIGINT or SIGTERM, letting in-flight
requests finish within the configured shutdown timeout.

Example:
  video-toolbox serve --address :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (overrides server.address)")
	serveCmd.Flags().BoolVar(&serveSkipVerify, "skip-verify", false, "Start without checking ffmpeg and ffprobe")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or VTB_JWT_SECRET) is required to serve")
	}
	if serveAddress != "" {
		c.Server.Address = serveAddress
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(c)

	if c.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, tracing.Config{
			ServiceName: c.Tracing.ServiceName,
			Endpoint:    c.Tracing.Endpoint,
			Insecure:    c.Tracing.Insecure,
		})
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	app, err := NewApp(ctx, c, logger, WithOAuthPrompt(os.Stdout))
	if err != nil {
		return err
	}
	defer app.Close()

	if !serveSkipVerify {
		if err := app.VerifyEngine(ctx); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", c.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Server.Address, err)
	}

	return Serve(ctx, listener, app.Handler(), ServeOptions{
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		Logger:          logger,
	})
}

// Handler builds the HTTP API over the app's services
func (a *App) Handler() http.Handler {
	deps := httpapi.Deps{
		Uploader:   a.Ingest,
		Transcoder: a.Transcode,
		Issuer:     a.Issuer,
		Opener:     a.Gateway,
		Verifier:   auth.NewVerifier(a.Config.Auth.JWTSecret),
		Store:      a.Store,
		Logger:     a.Logger,
	}
	if a.Notifier != nil {
		deps.Notifier = a.Notifier
	}

	return httpapi.NewRouter(deps, httpapi.Options{
		PublicBaseURL:  a.Config.Server.PublicBaseURL,
		MaxUploadBytes: a.Config.Server.MaxUploadBytes,
	})
}

// ServeOptions tune the HTTP server lifecycle
type ServeOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Serve runs handler on listener until ctx is cancelled, then drains
// in-flight requests for at most ShutdownTimeout
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("video toolbox listening", "address", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", opts.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
