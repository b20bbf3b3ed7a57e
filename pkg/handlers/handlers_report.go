package handlers

import (
	"fmt"
	"net/http"

	"github.com/arnavshah/store-scheduler-api/pkg/recommend"
	"github.com/arnavshah/store-scheduler-api/pkg/report"
	"github.com/arnavshah/store-scheduler-api/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report downloads the weekly schedule of a store as a spreadsheet, with
// the recommendation computed over the previous week's traffic
func (h *Handler) Report(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}
	act, ok := h.activity(c)
	if !ok {
		return
	}

	ref, err := parseDate(c.Query("week"), today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sd, err := newStoreDay(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	monday := weekStart(ref)
	week, err := h.loadWeek(c.Request.Context(), act, s, sd, monday)
	if err != nil {
		h.upstreamError(c, "activity records", err)
		return
	}

	w := &report.Weekly{
		StoreCode: s.Code,
		StoreName: s.Name,
		Days:      week.Days,
		Employees: week.Employees,
		Fairness:  scheduler.ContractFairness(week.Employees),
	}

	prevMonday := monday.AddDate(0, 0, -7)
	samples, err := h.Traffic.Samples(c.Request.Context(), s.Code, prevMonday, prevMonday.AddDate(0, 0, 6))
	if err != nil {
		h.Logger.Warn("report without recommendations", "store", s.Code, "error", err)
	} else if len(samples) > 0 {
		if res, err := recommend.Compute(samples, storeParameters(s)); err == nil {
			w.Recommendations = res.Recommendations
		} else {
			h.Logger.Warn("report without recommendations", "store", s.Code, "error", err)
		}
	}

	data, err := w.Bytes()
	if err != nil {
		h.Logger.Error("rendering report", "store", s.Code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render report"})
		return
	}

	name := fmt.Sprintf("horario_%s_%s.xlsx", s.Code, week.Days[0])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
