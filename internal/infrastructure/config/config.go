package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/curlkit/curl"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/curlkit/transport"
)

// Config holds all client configuration.
type Config struct {
	HTTP      HTTPConfig
	Retry     RetryConfig
	Share     ShareConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
	Logging   LogConfig
}

// HTTPConfig holds the per-request defaults.
type HTTPConfig struct {
	Timeout         time.Duration `envconfig:"KCURL_TIMEOUT" default:"30s"`
	ConnectTimeout  time.Duration `envconfig:"KCURL_CONNECT_TIMEOUT" default:"10s"`
	VerifySSL       bool          `envconfig:"KCURL_VERIFY_SSL" default:"true"`
	CABundle        string        `envconfig:"KCURL_CA_BUNDLE"`
	FollowRedirects bool          `envconfig:"KCURL_FOLLOW_REDIRECTS" default:"true"`
	MaxRedirects    int           `envconfig:"KCURL_MAX_REDIRECTS" default:"5"`
	AutoReferer     bool          `envconfig:"KCURL_AUTO_REFERER" default:"true"`
	Compression     bool          `envconfig:"KCURL_COMPRESSION" default:"true"`
	UserAgent       string        `envconfig:"KCURL_USER_AGENT"`
	Proxy           string        `envconfig:"KCURL_PROXY"`
	ProxyUser       string        `envconfig:"KCURL_PROXY_USER"`
	ProxyPassword   string        `envconfig:"KCURL_PROXY_PASSWORD"`
	CookieFile      string        `envconfig:"KCURL_COOKIE_FILE"`
	CookieJar       string        `envconfig:"KCURL_COOKIE_JAR"`
	RequestID       string        `envconfig:"KCURL_REQUEST_ID_HEADER"`
}

// RetryConfig holds the default retry policy.
type RetryConfig struct {
	Times int           `envconfig:"KCURL_RETRY_TIMES" default:"0"`
	Delay time.Duration `envconfig:"KCURL_RETRY_DELAY" default:"1s"`
}

// ShareConfig controls connection reuse and pool fan-out.
type ShareConfig struct {
	PoolSize  int `envconfig:"KCURL_SHARED_POOL" default:"0"`
	PoolLimit int `envconfig:"KCURL_POOL_LIMIT" default:"0"`
}

// RateLimitConfig holds client-side throttling configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"KCURL_RATE_LIMIT_RPS" default:"10"`
	Burst             int     `envconfig:"KCURL_RATE_LIMIT_BURST" default:"20"`
	Enabled           bool    `envconfig:"KCURL_RATE_LIMIT_ENABLED" default:"false"`
}

// BreakerConfig holds per-host circuit breaker configuration.
type BreakerConfig struct {
	Failures int           `envconfig:"KCURL_BREAKER_FAILURES" default:"5"`
	OpenFor  time.Duration `envconfig:"KCURL_BREAKER_OPEN_FOR" default:"30s"`
	Enabled  bool          `envconfig:"KCURL_BREAKER_ENABLED" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"KCURL_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"KCURL_LOG_DEV" default:"false"`
	File        string `envconfig:"KCURL_LOG_FILE"`
	MaxSizeMB   int    `envconfig:"KCURL_LOG_MAX_SIZE_MB" default:"25"`
	MaxBackups  int    `envconfig:"KCURL_LOG_MAX_BACKUPS" default:"10"`
	MaxAgeDays  int    `envconfig:"KCURL_LOG_MAX_AGE_DAYS" default:"14"`
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:         30 * time.Second,
			ConnectTimeout:  10 * time.Second,
			VerifySSL:       true,
			FollowRedirects: true,
			MaxRedirects:    5,
			AutoReferer:     true,
			Compression:     true,
		},
		Retry: RetryConfig{
			Delay: time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Breaker: BreakerConfig{
			Failures: 5,
			OpenFor:  30 * time.Second,
		},
		Logging: LogConfig{
			Level:      "info",
			MaxSizeMB:  25,
			MaxBackups: 10,
			MaxAgeDays: 14,
		},
	}
}

// Defaults converts the HTTP section into builder defaults.
func (h HTTPConfig) Defaults() curl.Defaults {
	d := curl.DefaultSettings()
	d.Timeout = h.Timeout
	d.ConnectTimeout = h.ConnectTimeout
	d.VerifySSL = h.VerifySSL
	d.CABundle = h.CABundle
	d.FollowRedirects = h.FollowRedirects
	d.MaxRedirects = h.MaxRedirects
	d.AutoReferer = h.AutoReferer
	d.Compression = h.Compression
	if h.UserAgent != "" {
		d.UserAgent = h.UserAgent
	}
	if h.Proxy != "" {
		d.Proxy = &transport.Proxy{Host: h.Proxy, Username: h.ProxyUser, Password: h.ProxyPassword}
	}
	if h.CookieFile != "" {
		d.Cookies = true
		d.CookieFile = h.CookieFile
	}
	d.CookieJar = h.CookieJar
	return d
}

// Defaults is HTTP.Defaults plus the retry policy.
func (c *Config) Defaults() curl.Defaults {
	d := c.HTTP.Defaults()
	d.Retry = curl.RetryPolicy{Times: c.Retry.Times, Delay: c.Retry.Delay}
	return d
}

// ExecutorOptions returns the executor options implied by the sharing,
// throttling and breaker sections.
func (c *Config) ExecutorOptions() []curl.Option {
	opts := []curl.Option{
		curl.WithSharedPool(c.Share.PoolSize),
		curl.WithPoolLimit(c.Share.PoolLimit),
	}
	if c.RateLimit.Enabled {
		opts = append(opts, curl.WithRateLimit(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	if c.Breaker.Enabled {
		opts = append(opts, curl.WithBreakerThreshold(c.Breaker.Failures, c.Breaker.OpenFor))
	}
	if c.HTTP.RequestID != "" {
		opts = append(opts, curl.WithRequestID(c.HTTP.RequestID))
	}
	return opts
}

// LoggerConfig converts the logging section.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Development = c.Logging.Development
	cfg.File = c.Logging.File
	cfg.MaxSizeMB = c.Logging.MaxSizeMB
	cfg.MaxBackups = c.Logging.MaxBackups
	cfg.MaxAgeDays = c.Logging.MaxAgeDays
	return cfg
}
