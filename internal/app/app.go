// Package app wires the configuration into a ready to serve API.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/arnavshah/store-scheduler-api/internal/config"
	"github.com/arnavshah/store-scheduler-api/pkg/airtable"
	"github.com/arnavshah/store-scheduler-api/pkg/auth"
	"github.com/arnavshah/store-scheduler-api/pkg/cache"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/handlers"
	"github.com/arnavshah/store-scheduler-api/pkg/hrapi"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/storesync"
	"github.com/arnavshah/store-scheduler-api/pkg/traffic"
	"github.com/gin-gonic/gin"
)

const trafficCacheSize = 2000

// App is the assembled API
type App struct {
	Handler *handlers.Handler
	Router  *gin.Engine

	trafficCache *cache.Cache[[]models.TrafficSample]
	cacheFile    string
	logger       *slog.Logger
}

// New opens the database, builds the upstream clients and the router
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, sessions use an insecure default secret")
		cfg.JWTSecret = "insecure-development-secret"
	}
	authn := auth.New(cfg.JWTSecret, cfg.MasterSecret, cfg.SessionTTL)
	if err := authn.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		return nil, fmt.Errorf("creating admin user: %w", err)
	}

	h := &handlers.Handler{DB: db, Auth: authn, Logger: logger}

	var base *airtable.Client
	if cfg.AirtableToken != "" && cfg.AirtableBaseID != "" {
		base = airtable.NewClient(cfg.AirtableURL, cfg.AirtableBaseID, cfg.AirtableToken, logger)
		h.Activity = base
	} else {
		logger.Warn("Airtable is not configured, schedule endpoints are disabled")
	}

	var hr *hrapi.Client
	if cfg.HRAPIURL != "" {
		hr = hrapi.NewClient(cfg.HRAPIURL, cfg.HRAPIKey, logger)
		if base != nil {
			h.Syncer = storesync.New(db, hr, base, logger)
		} else {
			h.Syncer = storesync.New(db, hr, nil, logger)
		}
	} else {
		logger.Warn("HR API is not configured, sync is disabled")
	}

	var source traffic.Source = traffic.NewSimulator()
	if cfg.TrafficSource == "api" {
		if hr == nil {
			return nil, errors.New("TRAFFIC_SOURCE=api requires HR_API_URL")
		}
		source = hr
	}
	logger.Info("traffic source selected", "source", cfg.TrafficSource)

	a := &App{Handler: h, logger: logger}
	a.trafficCache = cache.New[[]models.TrafficSample]("traffic", cfg.CacheTTL, trafficCacheSize, logger)
	if cfg.CacheDir != "" {
		a.cacheFile = filepath.Join(cfg.CacheDir, "traffic.gob")
		if err := a.trafficCache.Load(a.cacheFile); err != nil {
			logger.Warn("could not load traffic cache", "error", err)
		}
	}
	h.Traffic = traffic.NewCached(source, a.trafficCache)

	a.Router = handlers.NewRouter(h)
	return a, nil
}

// Close persists the traffic cache when a cache directory is configured
func (a *App) Close() {
	if a.cacheFile == "" {
		return
	}
	if err := a.trafficCache.Save(a.cacheFile); err != nil {
		a.logger.Error("could not save traffic cache", "error", err)
	}
}
