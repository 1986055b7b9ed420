package config

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/thesavant42/webhist/internal/api"
)

type Config struct {
	CrtshURL     string
	WaybackURL   string
	FetchTimeout time.Duration
	ArchiveLimit int
	RateLimit    float64 // requests per second per source; 0 disables
	UserAgent    string
	DBPath       string // empty disables the investigation log
	Addr         string
	LogLevel     log.Level
}

// Load reads .env (if present) and the WEBHIST_* environment variables.
// Invalid values log a warning and fall back to the default.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CrtshURL:     strings.TrimRight(getEnv("WEBHIST_CRTSH_URL", api.DefaultCrtshBaseURL), "/"),
		WaybackURL:   strings.TrimRight(getEnv("WEBHIST_WAYBACK_URL", api.DefaultWaybackBaseURL), "/"),
		FetchTimeout: getDuration("WEBHIST_FETCH_TIMEOUT", 10*time.Second),
		ArchiveLimit: getPositiveInt("WEBHIST_ARCHIVE_LIMIT", api.DefaultArchiveLimit),
		RateLimit:    getFloat("WEBHIST_RATE_LIMIT", 1),
		UserAgent:    getEnv("WEBHIST_USER_AGENT", ""),
		DBPath:       getEnv("WEBHIST_DB", ""),
		Addr:         getEnv("WEBHIST_ADDR", ":8080"),
		LogLevel:     getLevel("WEBHIST_LOG_LEVEL", log.InfoLevel),
	}
}

// ClientOptions is the HTTP behaviour shared by both source clients
func (c *Config) ClientOptions() api.ClientOptions {
	return api.ClientOptions{
		Timeout:   c.FetchTimeout,
		UserAgent: c.UserAgent,
		RateLimit: rate.Limit(c.RateLimit),
	}
}

// NewLogger builds the process logger at the configured level
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           c.LogLevel,
		ReportTimestamp: true,
		Prefix:          "webhist",
	})
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn("invalid duration for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getPositiveInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn("invalid integer for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Warn("invalid number for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getLevel(key string, fallback log.Level) log.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	level, err := log.ParseLevel(v)
	if err != nil {
		log.Warn("invalid log level for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return level
}
