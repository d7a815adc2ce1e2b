package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Media     MediaConfig     `yaml:"media"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Sharing   SharingConfig   `yaml:"sharing"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
	Email     EmailConfig     `yaml:"email"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MediaConfig contains upload admission rules
type MediaConfig struct {
	UploadDirectory    string   `yaml:"upload_directory"`
	AllowedTypes       []string `yaml:"allowed_types"`
	MinDurationSeconds float64  `yaml:"min_duration_seconds"`
	MaxDurationSeconds float64  `yaml:"max_duration_seconds"`
}

// TranscodeConfig contains media engine settings
type TranscodeConfig struct {
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	FFprobePath      string        `yaml:"ffprobe_path"`
	Prober           string        `yaml:"prober"`
	Timeout          time.Duration `yaml:"timeout"`
	TrimOutput       string        `yaml:"trim_output"`
	MergeDuration    string        `yaml:"merge_duration"`
	StreamCopy       bool          `yaml:"stream_copy"`
	RequireOwnership bool          `yaml:"require_ownership"`
}

// SharingConfig contains share link settings
type SharingConfig struct {
	MaxDuration   time.Duration `yaml:"max_duration"`
	TokenAttempts int           `yaml:"token_attempts"`
}

// DatabaseConfig selects the record store
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CacheConfig configures the optional Redis record cache
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// AuthConfig contains bearer token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// TracingConfig contains OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EmailConfig contains share notification settings
type EmailConfig struct {
	Enabled         bool                       `yaml:"enabled"`
	FromName        string                     `yaml:"from_name"`
	FromAddress     string                     `yaml:"from_address"`
	SenderName      string                     `yaml:"sender_name"`
	CredentialsFile string                     `yaml:"credentials_file"`
	TokenFile       string                     `yaml:"token_file"`
	DefaultCC       []RecipientConfig          `yaml:"default_cc"`
	Contacts        map[string]RecipientConfig `yaml:"contacts"`
}

// RecipientConfig represents an email recipient
type RecipientConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// Default returns the configuration used when a value is not set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":3000",
			MaxUploadBytes:  100 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Media: MediaConfig{
			UploadDirectory:    "uploads",
			AllowedTypes:       []string{"video/mp4", "video/quicktime", "video/webm", "video/x-matroska"},
			MinDurationSeconds: 1,
			MaxDurationSeconds: 600,
		},
		Transcode: TranscodeConfig{
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
			Prober:        "ffprobe",
			Timeout:       5 * time.Minute,
			TrimOutput:    "deterministic",
			MergeDuration: "sum",
		},
		Sharing: SharingConfig{
			MaxDuration:   24 * time.Hour,
			TokenAttempts: 5,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "video-toolbox.db",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: time.Hour,
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "video-toolbox",
			Insecure:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from the specified YAML file on top of
// the defaults, then applies environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides values from VTB_* environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("VTB_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("VTB_DATABASE_DSN"); ok {
		c.Database.DSN = v
	}
	if v, ok := lookup("VTB_REDIS_ADDR"); ok {
		c.Cache.RedisAddr = v
	}
	if v, ok := lookup("VTB_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("VTB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%w: VTB_PORT %q is not a valid port", ErrInvalidConfig, v)
		}
		c.Server.Address = ":" + strconv.Itoa(port)
	}
	return nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
