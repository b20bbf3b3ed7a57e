package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// WorkHours resolves the worked hours of every activity record of a store
// on one day
func (h *Handler) WorkHours(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}
	act, ok := h.activity(c)
	if !ok {
		return
	}

	day, err := parseDate(c.Query("date"), today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sd, err := newStoreDay(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.loadRows(c.Request.Context(), act, s, sd, day, day)
	if err != nil {
		h.upstreamError(c, "activity records", err)
		return
	}

	date := day.Format(dateLayout)
	dayRows := rows[date]
	sort.Slice(dayRows, func(i, j int) bool {
		return dayRows[i].Record.EmployeeName < dayRows[j].Record.EmployeeName
	})

	var total float64
	out := make([]gin.H, 0, len(dayRows))
	for _, row := range dayRows {
		total += row.Result.TotalHours
		out = append(out, gin.H{
			"record_id":     row.Record.ID,
			"employee_id":   row.Record.EmployeeID,
			"employee_name": row.Record.EmployeeName,
			"result":        row.Result,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"store":       s.Code,
		"date":        date,
		"slots":       sd.slots,
		"employees":   out,
		"total_hours": total,
	})
}
