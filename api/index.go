package handler

import (
	"net/http"
	"sync"

	"github.com/arnavshah/store-scheduler-api/internal/app"
	"github.com/arnavshah/store-scheduler-api/internal/config"
	"github.com/gin-gonic/gin"
)

var (
	once    sync.Once
	router  http.Handler
	initErr error
)

func setup() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadEnv()
	cfg := config.Load()
	logger := cfg.NewLogger()

	gin.SetMode(gin.ReleaseMode)
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("could not start", "error", err)
		initErr = err
		return
	}
	router = a.Router
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	router.ServeHTTP(w, r)
}
