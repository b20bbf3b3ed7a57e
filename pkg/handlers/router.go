package handlers

import (
	"net/http"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// NewRouter wires every route of the API
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Store Scheduler API",
			"version": Version,
		})
	})
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", h.SessionMiddleware(), h.Me)

	// Store endpoints
	stores := r.Group("/api/stores/:code")
	stores.Use(h.SessionMiddleware(), h.StoreAccessMiddleware())
	{
		stores.GET("/recommendations", h.Recommendations)
		stores.GET("/workhours", h.WorkHours)
		stores.GET("/schedule", h.GetSchedule)
		stores.PATCH("/schedule/:recordID", h.UpdateSlots)
		stores.POST("/schedule/csv", h.ImportCSV)
		stores.POST("/schedule/validate", h.ValidateSchedule)
		stores.GET("/report", h.Report)
	}

	// Admin endpoints
	admin := r.Group("/admin")
	admin.Use(h.SessionMiddleware(), h.AdminMiddleware())
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/stores", h.ListStores)
		admin.PUT("/stores/:code", h.UpdateStoreParams)
		admin.POST("/sync", h.TriggerSync)
		admin.GET("/sync/runs", h.ListSyncRuns)
		admin.GET("/usage", h.GetUsage)
	}

	r.POST("/sync", h.SyncKeyMiddleware(), h.CronSync)

	return r
}

// Health reports whether the database answers
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"airtable": h.Activity != nil,
		"hr_api":   h.Syncer != nil,
	})
}
