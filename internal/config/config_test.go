package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_PATH", "HR_API_URL", "TRAFFIC_SOURCE", "CACHE_TTL", "SESSION_TTL", "LOG_LEVEL", "AIRTABLE_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "scheduler.db", cfg.DataPath)
	assert.Equal(t, "simulated", cfg.TrafficSource)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "https://api.airtable.com/v0", cfg.AirtableURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HR_API_URL", "https://hr.example.com/")
	t.Setenv("TRAFFIC_SOURCE", "")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://hr.example.com", cfg.HRAPIURL)
	assert.Equal(t, "api", cfg.TrafficSource)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
