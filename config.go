package authkit

import (
	"errors"
	"time"
)

// Config defines the controller configuration. Configure before
// [Builder.Build]; treated as immutable afterwards.
type Config struct {
	Transport TransportConfig
	Refresh   RefreshConfig
	Session   SessionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the default HTTP transport built when no
// explicit transport is supplied.
type TransportConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig tunes the proactive refresh loop.
type RefreshConfig struct {
	// Interval between refreshes when the session expiry is unknown.
	Interval time.Duration
	// Lead is how far ahead of a known expiry the refresh fires.
	Lead time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes snapshot persistence.
type SessionConfig struct {
	// SnapshotTTL bounds a persisted snapshot's lifetime in stores that
	// support expiry. Zero keeps snapshots until cleared.
	SnapshotTTL time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig configures the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full; drops are counted and observable via AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Timeout:   30 * time.Second,
			UserAgent: "authkit",
		},
		Refresh: RefreshConfig{
			Interval: 10 * time.Minute,
			Lead:     time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are values; a shallow copy is a deep copy.
	return cfg
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	if c.Refresh.Interval < 0 || c.Refresh.Lead < 0 {
		return errors.New("refresh durations must not be negative")
	}
	if c.Refresh.Interval > 0 && c.Refresh.Interval < time.Second {
		return errors.New("refresh interval below one second")
	}
	if c.Session.SnapshotTTL < 0 {
		return errors.New("snapshot TTL must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
