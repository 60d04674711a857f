package authkit

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Transport.Timeout != 30*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Transport.Timeout)
	}
	if !cfg.Audit.Enabled || !cfg.Metrics.Enabled {
		t.Fatalf("audit and metrics default on")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative refresh interval", func(c *Config) { c.Refresh.Interval = -time.Second }},
		{"negative refresh lead", func(c *Config) { c.Refresh.Lead = -time.Second }},
		{"sub-second refresh interval", func(c *Config) { c.Refresh.Interval = 100 * time.Millisecond }},
		{"negative snapshot TTL", func(c *Config) { c.Session.SnapshotTTL = -time.Minute }},
		{"negative audit buffer", func(c *Config) { c.Audit.BufferSize = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigIsIndependent(t *testing.T) {
	cfg := defaultConfig()
	clone := cloneConfig(cfg)
	clone.Transport.BaseURL = "https://other.example.com/"

	if cfg.Transport.BaseURL == clone.Transport.BaseURL {
		t.Fatal("clone must not share state with the original")
	}
}
