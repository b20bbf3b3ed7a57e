// Package config loads the server settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment
type Config struct {
	Port          string
	DatabaseURL   string
	DataPath      string
	JWTSecret     string
	MasterSecret  string
	AdminUsername string
	AdminPassword string

	AirtableURL    string
	AirtableToken  string
	AirtableBaseID string

	HRAPIURL      string
	HRAPIKey      string
	TrafficSource string // "api" or "simulated"

	CacheTTL   time.Duration
	CacheDir   string
	SessionTTL time.Duration
	LogLevel   slog.Level
}

// LoadEnv loads the first .env file found in the working directory or its parents
func LoadEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load reads the configuration from the environment, applying defaults
func Load() Config {
	cfg := Config{
		Port:           getenv("PORT", "8000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DataPath:       getenv("DATA_PATH", "scheduler.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MasterSecret:   os.Getenv("API_MASTER_SECRET"),
		AdminUsername:  getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getenv("ADMIN_PASSWORD", "admin123"),
		AirtableURL:    strings.TrimRight(getenv("AIRTABLE_URL", "https://api.airtable.com/v0"), "/"),
		AirtableToken:  os.Getenv("AIRTABLE_TOKEN"),
		AirtableBaseID: os.Getenv("AIRTABLE_BASE_ID"),
		HRAPIURL:       strings.TrimRight(os.Getenv("HR_API_URL"), "/"),
		HRAPIKey:       os.Getenv("HR_API_KEY"),
		CacheDir:       os.Getenv("CACHE_DIR"),
		CacheTTL:       duration("CACHE_TTL", 10*time.Minute),
		SessionTTL:     duration("SESSION_TTL", 24*time.Hour),
		LogLevel:       level(os.Getenv("LOG_LEVEL")),
	}

	cfg.TrafficSource = strings.ToLower(os.Getenv("TRAFFIC_SOURCE"))
	if cfg.TrafficSource == "" {
		cfg.TrafficSource = "simulated"
		if cfg.HRAPIURL != "" {
			cfg.TrafficSource = "api"
		}
	}
	return cfg
}

// NewLogger builds the process logger
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("ignoring malformed duration", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func level(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
