// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`

	// Upstream feed settings
	FeedBaseURL    string        `env:"FEED_BASE_URL, default=https://testapi.getlokalapp.com" json:"feed_base_url" validate:"required,url"`
	FeedTimeout    time.Duration `env:"FEED_TIMEOUT, default=10s" json:"feed_timeout" validate:"gt=0"`
	FeedMaxRetries int           `env:"FEED_MAX_RETRIES, default=0" json:"feed_max_retries" validate:"min=0,max=10"`

	// Bookmark storage settings
	StoreBackend             string `env:"STORE_BACKEND, default=file" json:"store_backend" validate:"oneof=memory file redis s3"`
	StoreDir                 string `env:"STORE_DIR, default=/tmp/jobfeed" json:"store_dir" validate:"required_if=StoreBackend file"`
	BookmarksKey             string `env:"BOOKMARKS_KEY, default=@lokalapp_bookmarks" json:"bookmarks_key" validate:"required"`
	BookmarkCheckConcurrency int    `env:"BOOKMARK_CHECK_CONCURRENCY, default=4" json:"bookmark_check_concurrency" validate:"min=1,max=64"`

	// Redis settings, required when StoreBackend is "redis"
	RedisURL string `env:"REDIS_URL" json:"-" validate:"required_if=StoreBackend redis"` // Masked in JSON

	// S3 settings, required when StoreBackend is "s3"
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty" validate:"required_if=StoreBackend s3"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty" validate:"required_if=StoreBackend s3"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

var validate = validator.New()

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and backend-specific requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, FeedBaseURL: %s, FeedTimeout: %s, FeedMaxRetries: %d, StoreBackend: %s, StoreDir: %s, BookmarksKey: %s, BookmarkCheckConcurrency: %d, RedisURL: %s, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.FeedBaseURL,
		c.FeedTimeout,
		c.FeedMaxRetries,
		c.StoreBackend,
		c.StoreDir,
		c.BookmarksKey,
		c.BookmarkCheckConcurrency,
		mask(c.RedisURL),
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
