package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/kv"
)

// Config is the full configuration surface of a [Core]. Build one from
// [DefaultConfig] and override what differs; Validate runs during
// [Builder.Build].
type Config struct {
	Store        kv.Config
	Session      SessionConfig
	RefreshToken RefreshTokenConfig
	Cache        CacheConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// SessionConfig controls the session store: key prefixes and the sliding
// inactivity window.
type SessionConfig struct {
	Prefix      string
	IndexPrefix string
	// TTL is the sliding inactivity window. Every successful read pushes
	// the expiry out by this much.
	TTL time.Duration
}

// RefreshTokenConfig controls the refresh-token store. Token lifetimes
// are fixed at creation and never slide.
type RefreshTokenConfig struct {
	Prefix      string
	IndexPrefix string
	TTL         time.Duration
}

// CacheConfig controls the data cache namespace and the TTL applied when
// a caller does not provide one.
type CacheConfig struct {
	Prefix     string
	DefaultTTL time.Duration
}

// AuditConfig controls the asynchronous audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking the hot path when
	// the buffer is saturated. Drops are counted and reported through
	// [Core.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 15 minute sliding
// sessions, 7 day refresh tokens, 1 hour default cache TTL, a 5 second
// connect timeout, and 5 reconnection attempts before forced disconnect.
func DefaultConfig() Config {
	return Config{
		Store: kv.Config{
			Addr:                 "localhost:6379",
			ConnectTimeout:       5 * time.Second,
			MaxReconnectAttempts: 5,
		},
		Session: SessionConfig{
			Prefix:      "session",
			IndexPrefix: "user_sessions",
			TTL:         15 * time.Minute,
		},
		RefreshToken: RefreshTokenConfig{
			Prefix:      "refresh_token",
			IndexPrefix: "refresh_user",
			TTL:         7 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			Prefix:     "cache",
			DefaultTTL: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate rejects configurations that would produce silently broken
// behavior at runtime.
func (c *Config) Validate() error {
	if c.Store.Addr == "" {
		return errors.New("Store Addr is required")
	}
	if c.Store.ConnectTimeout < 0 {
		return errors.New("Store ConnectTimeout must be >= 0")
	}
	if c.Store.MaxReconnectAttempts < 0 {
		return errors.New("Store MaxReconnectAttempts must be >= 0")
	}

	if c.Session.Prefix == "" {
		return errors.New("Session Prefix is required")
	}
	if c.Session.IndexPrefix == "" {
		return errors.New("Session IndexPrefix is required")
	}
	if c.Session.Prefix == c.Session.IndexPrefix {
		return errors.New("Session Prefix and IndexPrefix must differ")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}

	if c.RefreshToken.Prefix == "" {
		return errors.New("RefreshToken Prefix is required")
	}
	if c.RefreshToken.IndexPrefix == "" {
		return errors.New("RefreshToken IndexPrefix is required")
	}
	if c.RefreshToken.Prefix == c.RefreshToken.IndexPrefix {
		return errors.New("RefreshToken Prefix and IndexPrefix must differ")
	}
	if c.RefreshToken.TTL <= 0 {
		return errors.New("RefreshToken TTL must be > 0")
	}

	if c.Cache.Prefix == "" {
		return errors.New("Cache Prefix is required")
	}
	if c.Cache.DefaultTTL <= 0 {
		return errors.New("Cache DefaultTTL must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
