package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
	"github.com/gin-gonic/gin"
)

// ListStores returns every synced store with its recommendation parameters
func (h *Handler) ListStores(c *gin.Context) {
	var stores []database.Store
	if err := h.DB.Order("code").Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch stores"})
		return
	}
	c.JSON(http.StatusOK, stores)
}

// UpdateStoreParams changes the recommendation parameters of a store
func (h *Handler) UpdateStoreParams(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}

	var req struct {
		DesiredAttention *float64 `json:"desired_attention"`
		GrowthFactor     *float64 `json:"growth_factor"`
		OpeningTime      *string  `json:"opening_time"`
		ClosingTime      *string  `json:"closing_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.DesiredAttention != nil {
		v := *req.DesiredAttention
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "desired_attention must be positive"})
			return
		}
		updates["desired_attention"] = v
	}
	if req.GrowthFactor != nil {
		v := *req.GrowthFactor
		if math.IsNaN(v) || math.IsInf(v, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "growth_factor must be finite"})
			return
		}
		updates["growth_factor"] = v
	}

	opening, closing := s.OpeningTime, s.ClosingTime
	if req.OpeningTime != nil {
		opening = *req.OpeningTime
		updates["opening_time"] = opening
	}
	if req.ClosingTime != nil {
		closing = *req.ClosingTime
		updates["closing_time"] = closing
	}
	if req.OpeningTime != nil || req.ClosingTime != nil {
		if _, err := workhours.SlotLabels(opening, closing, workhours.IsFrance(s.Country)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := h.DB.Model(s).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update store"})
		return
	}
	h.Logger.Info("store parameters updated", "store", s.Code, "by", sessionClaims(c).Username)

	updated, err := database.StoreByCode(h.DB, s.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load store"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// TriggerSync runs an HR synchronisation on behalf of an administrator
func (h *Handler) TriggerSync(c *gin.Context) {
	h.runSync(c, "manual:"+sessionClaims(c).Username)
}

// CronSync runs the scheduled synchronisation authenticated by a sync key
// and counts it against the key's daily usage
func (h *Handler) CronSync(c *gin.Context) {
	keyName := c.GetString("keyName")
	run, ok := h.runSync(c, "cron:"+keyName)
	if !ok {
		return
	}
	if err := database.RecordSyncUsage(h.DB, keyName, time.Now().UTC(), run.Stores, run.Employees); err != nil {
		h.Logger.Error("recording sync usage", "key", keyName, "error", err)
	}
}

func (h *Handler) runSync(c *gin.Context, trigger string) (*database.SyncRun, bool) {
	if h.Syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "HR API is not configured"})
		return nil, false
	}

	run, err := h.Syncer.Run(c.Request.Context(), trigger)
	if err != nil {
		if run == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sync failed", "run": run})
		return nil, false
	}
	c.JSON(http.StatusOK, run)
	return run, true
}

// ListSyncRuns returns the latest synchronisation runs
func (h *Handler) ListSyncRuns(c *gin.Context) {
	var runs []database.SyncRun
	if err := h.DB.Order("started_at desc").Limit(50).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch sync runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetUsage returns the daily usage of the sync keys over the last 30 days
func (h *Handler) GetUsage(c *gin.Context) {
	since := time.Now().UTC().AddDate(0, 0, -30).Format(dateLayout)

	var usage []database.SyncUsage
	if err := h.DB.Where("date >= ?", since).Order("date desc").Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalStores, totalEmployees int64
	perKey := map[string]int64{}
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalStores += int64(u.Stores)
		totalEmployees += int64(u.Employees)
		perKey[u.KeyName] += int64(u.RequestCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"per_key":       perKey,
		"totals": gin.H{
			"requests":  totalRequests,
			"stores":    totalStores,
			"employees": totalEmployees,
		},
	})
}
