package config

import "fmt"

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if len(c.Media.AllowedTypes) == 0 {
		return invalid("media.allowed_types must not be empty")
	}
	if c.Media.MinDurationSeconds < 0 || c.Media.MinDurationSeconds > c.Media.MaxDurationSeconds {
		return invalid("media.min_duration_seconds (%g) must be between 0 and media.max_duration_seconds (%g)",
			c.Media.MinDurationSeconds, c.Media.MaxDurationSeconds)
	}
	if c.Media.UploadDirectory == "" {
		return invalid("media.upload_directory is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return invalid("server.max_upload_bytes must be positive")
	}

	switch c.Transcode.Prober {
	case "ffprobe", "opencv":
	default:
		return invalid("transcode.prober %q must be ffprobe or opencv", c.Transcode.Prober)
	}
	switch c.Transcode.TrimOutput {
	case "deterministic", "unique":
	default:
		return invalid("transcode.trim_output %q must be deterministic or unique", c.Transcode.TrimOutput)
	}
	switch c.Transcode.MergeDuration {
	case "sum", "probe":
	default:
		return invalid("transcode.merge_duration %q must be sum or probe", c.Transcode.MergeDuration)
	}
	if c.Transcode.Timeout <= 0 {
		return invalid("transcode.timeout must be positive")
	}

	if c.Sharing.MaxDuration <= 0 {
		return invalid("sharing.max_duration must be positive")
	}
	if c.Sharing.TokenAttempts <= 0 {
		return invalid("sharing.token_attempts must be positive")
	}

	switch c.Database.Driver {
	case "sqlite3", "mysql", "memory":
	default:
		return invalid("database.driver %q must be sqlite3, mysql or memory", c.Database.Driver)
	}

	if c.Email.Enabled && c.Email.FromAddress == "" {
		return invalid("email.from_address is required when email is enabled")
	}

	return nil
}
