package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// clearEnv blanks every variable Load reads so a developer's .env or shell
// does not leak into the defaults test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WEBHIST_CRTSH_URL", "WEBHIST_WAYBACK_URL", "WEBHIST_FETCH_TIMEOUT",
		"WEBHIST_ARCHIVE_LIMIT", "WEBHIST_RATE_LIMIT", "WEBHIST_USER_AGENT",
		"WEBHIST_DB", "WEBHIST_ADDR", "WEBHIST_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.CrtshURL != "https://crt.sh" {
		t.Errorf("CrtshURL = %q, want default", cfg.CrtshURL)
	}
	if cfg.WaybackURL != "https://web.archive.org" {
		t.Errorf("WaybackURL = %q, want default", cfg.WaybackURL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.ArchiveLimit != 50 {
		t.Errorf("ArchiveLimit = %d, want 50", cfg.ArchiveLimit)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty", cfg.DBPath)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"WEBHIST_CRTSH_URL":     "http://localhost:9000/",
		"WEBHIST_WAYBACK_URL":   "http://localhost:9001",
		"WEBHIST_FETCH_TIMEOUT": "3s",
		"WEBHIST_ARCHIVE_LIMIT": "200",
		"WEBHIST_RATE_LIMIT":    "0.5",
		"WEBHIST_USER_AGENT":    "webhist-test",
		"WEBHIST_DB":            "/tmp/webhist.db",
		"WEBHIST_ADDR":          "127.0.0.1:9999",
		"WEBHIST_LOG_LEVEL":     "debug",
	})

	cfg := Load()

	if cfg.CrtshURL != "http://localhost:9000" {
		t.Errorf("CrtshURL = %q, want trailing slash trimmed", cfg.CrtshURL)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v, want 3s", cfg.FetchTimeout)
	}
	if cfg.ArchiveLimit != 200 {
		t.Errorf("ArchiveLimit = %d, want 200", cfg.ArchiveLimit)
	}
	if cfg.DBPath != "/tmp/webhist.db" || cfg.Addr != "127.0.0.1:9999" {
		t.Errorf("DBPath/Addr = %q/%q", cfg.DBPath, cfg.Addr)
	}
	if cfg.LogLevel != log.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}

	opts := cfg.ClientOptions()
	if opts.Timeout != 3*time.Second || opts.UserAgent != "webhist-test" || opts.RateLimit != rate.Limit(0.5) {
		t.Errorf("ClientOptions() = %+v", opts)
	}
}

func TestLoad_InvalidValues_FallBack(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(*Config) bool
	}{
		{"WEBHIST_FETCH_TIMEOUT", "soon", func(c *Config) bool { return c.FetchTimeout == 10*time.Second }},
		{"WEBHIST_FETCH_TIMEOUT", "-1s", func(c *Config) bool { return c.FetchTimeout == 10*time.Second }},
		{"WEBHIST_ARCHIVE_LIMIT", "abc", func(c *Config) bool { return c.ArchiveLimit == 50 }},
		{"WEBHIST_ARCHIVE_LIMIT", "0", func(c *Config) bool { return c.ArchiveLimit == 50 }},
		{"WEBHIST_RATE_LIMIT", "-2", func(c *Config) bool { return c.RateLimit == 1 }},
		{"WEBHIST_LOG_LEVEL", "loud", func(c *Config) bool { return c.LogLevel == log.InfoLevel }},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Errorf("%s=%q did not fall back to the default: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}
