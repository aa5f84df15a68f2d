package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/showkit/showrunner/pkg/api"
)

type (
	// Config holds runtime settings for the playback service
	Config struct {
		// API server
		APIHost  string
		APIPort  int
		LogLevel string

		// Run-level step defaults
		Defaults api.Settings

		// Step execution
		StepTimeout     time.Duration
		ShutdownTimeout time.Duration

		// Journal
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisPrefix   string
		JournalTTL    time.Duration

		// Archive; archiving is disabled when the bucket URL is empty
		ArchiveBucketURL string
		ArchivePrefix    string
	}
)

const (
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8080
	MaxTCPPort     = 65535

	DefaultStepTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisDB     = 0
	DefaultRedisPrefix = "showrunner"
	DefaultJournalTTL  = 24 * time.Hour

	DefaultArchivePrefix = "runs/"

	MaxPollInterval    = int64(24 * 60 * 60 * 1000) // 1 day in ms
	MaxPollMaxAttempts = 10_000
)

var (
	ErrInvalidAPIPort     = errors.New("invalid API port")
	ErrInvalidStepTimeout = errors.New("step timeout must be positive")
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost: DefaultAPIHost,
		APIPort: DefaultAPIPort,
		Defaults: api.Settings{
			PollIntervalMs:  api.DefaultPollIntervalMs,
			PollMaxAttempts: api.DefaultPollMaxAttempts,
		},
		StepTimeout:     DefaultStepTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		RedisAddr:       DefaultRedisAddr,
		RedisDB:         DefaultRedisDB,
		RedisPrefix:     DefaultRedisPrefix,
		JournalTTL:      DefaultJournalTTL,
		ArchivePrefix:   DefaultArchivePrefix,
		LogLevel:        "info",
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if baseURL := os.Getenv("DEFAULT_BASE_URL"); baseURL != "" {
		c.Defaults.BaseURL = baseURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.RedisPassword = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.RedisPrefix = prefix
	}
	if bucketURL := os.Getenv("ARCHIVE_BUCKET_URL"); bucketURL != "" {
		c.ArchiveBucketURL = bucketURL
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.RedisDB, -1, 15); err != nil {
		return err
	}
	if err := loadEnvInt(
		"POLL_INTERVAL_MS", &c.Defaults.PollIntervalMs, 0, MaxPollInterval,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"POLL_MAX_ATTEMPTS", &c.Defaults.PollMaxAttempts,
		0, MaxPollMaxAttempts,
	); err != nil {
		return err
	}

	if err := loadEnvDuration("STEP_TIMEOUT", &c.StepTimeout); err != nil {
		return err
	}
	if err := loadEnvDuration("JOURNAL_TTL", &c.JournalTTL); err != nil {
		return err
	}
	return loadEnvDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.StepTimeout <= 0 {
		return ErrInvalidStepTimeout
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	*dst = d
	return nil
}
