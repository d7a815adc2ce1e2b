package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"video-toolbox/infrastructure/config"
	"video-toolbox/infrastructure/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:   "video-toolbox",
	Short: "Upload, trim, merge and share short videos",
	Long: `video-toolbox manages the lifecycle of short video clips:

  - Upload and validate clips (type and duration)
  - Trim a clip to a time window
  - Merge clips in order into a new clip
  - Share clips through expiring links, optionally by email

Run the HTTP API with:
  video-toolbox serve --config config/config.yaml`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	cfg, cfgErr = config.Load(cfgFile)
	if cfgErr == nil {
		return
	}

	// A missing file falls back to defaults plus environment; a broken one is reported
	if errors.Is(cfgErr, fs.ErrNotExist) {
		cfg = config.Default()
		cfgErr = cfg.ApplyEnv(os.LookupEnv)
	}
	if cfgErr != nil {
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded and validated configuration
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded from %s: %w", cfgFile, cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; ensure %s exists", cfgFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section
func newLogger(c *config.Config) *slog.Logger {
	return logging.New(os.Stderr, c.Logging.Level, c.Logging.Format)
}
