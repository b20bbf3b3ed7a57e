package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/airtable"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/recommend"
	"github.com/arnavshah/store-scheduler-api/pkg/scheduler"
	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
	"github.com/gin-gonic/gin"
)

// understaffedTolerance is the staff shortfall tolerated before an hour is flagged
const understaffedTolerance = 0.5

// scheduleEntry is one employee day submitted by a manager
type scheduleEntry struct {
	EmployeeID   string            `json:"employee_id" binding:"required"`
	Date         string            `json:"date" binding:"required"`
	ActivityType string            `json:"activity_type"`
	Slots        map[string]string `json:"slots"`
}

// GetSchedule returns the week of a store with per employee totals and,
// for every day, the staffing coverage against the traffic of the same
// weekday one week earlier
func (h *Handler) GetSchedule(c *gin.Context) {
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

	week, err := h.loadWeek(c.Request.Context(), act, s, sd, weekStart(ref))
	if err != nil {
		h.upstreamError(c, "activity records", err)
		return
	}

	coverage := gin.H{}
	for _, d := range week.Days {
		day, _ := time.Parse(dateLayout, d)
		recs, err := h.dayRecommendations(c, s, day.AddDate(0, 0, -7))
		if err != nil {
			h.Logger.Warn("skipping coverage", "store", s.Code, "date", d, "error", err)
			continue
		}
		var records []models.ActivitySlotRecord
		for _, row := range week.Rows[d] {
			records = append(records, row.Record)
		}
		cov := scheduler.Coverage(recs, records, sd.slots, sd.france)
		coverage[d] = gin.H{
			"hours":        cov,
			"understaffed": scheduler.UnderstaffedHours(cov, understaffedTolerance),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"store":     s.Code,
		"week":      week.Days[0],
		"days":      week.Days,
		"slots":     sd.slots,
		"employees": week.Employees,
		"coverage":  coverage,
		"fairness":  scheduler.ContractFairness(week.Employees),
	})
}

// dayRecommendations computes the recommendation of one day with the
// store parameters
func (h *Handler) dayRecommendations(c *gin.Context, s *database.Store, day time.Time) (map[string]models.HourlyRecommendation, error) {
	samples, err := h.Traffic.Samples(c.Request.Context(), s.Code, day, day)
	if err != nil {
		return nil, err
	}
	res, err := recommend.Compute(samples, storeParameters(s))
	if err != nil {
		return nil, err
	}
	return res.Recommendations, nil
}

// UpdateSlots changes the slot statuses (and optionally the activity type)
// of one activity record and returns the recomputed hours
func (h *Handler) UpdateSlots(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}
	act, ok := h.activity(c)
	if !ok {
		return
	}

	var req struct {
		ActivityType *string           `json:"activity_type"`
		Slots        map[string]string `json:"slots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Slots) == 0 && req.ActivityType == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	sd, err := newStoreDay(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bad := unknownSlots(req.Slots, sd.slots); len(bad) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown slots for store " + s.Code, "slots": bad})
		return
	}

	ctx := c.Request.Context()
	current, err := act.Get(ctx, airtable.TableActivity, c.Param("recordID"))
	if err != nil {
		h.upstreamError(c, "activity record", err)
		return
	}
	if code := workhours.Text(current.Fields[workhours.FieldStore]); code != "" && !strings.EqualFold(code, s.Code) && code != s.AirtableID {
		c.JSON(http.StatusNotFound, gin.H{"error": "activity record not found"})
		return
	}

	fields := make(map[string]any, len(req.Slots)+1)
	for label, status := range req.Slots {
		fields[label] = status
	}
	if req.ActivityType != nil {
		fields[workhours.FieldActivityType] = *req.ActivityType
	}

	updated, err := act.Update(ctx, airtable.TableActivity, []airtable.Record{{ID: current.ID, Fields: fields}})
	if err != nil {
		h.upstreamError(c, "activity record", err)
		return
	}

	merged := current.Fields
	if len(updated) > 0 {
		merged = updated[0].Fields
	} else {
		if merged == nil {
			merged = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			merged[k] = v
		}
	}
	rec := workhours.FromFields(current.ID, merged, sd.slots)
	c.JSON(http.StatusOK, gin.H{
		"record": rec,
		"result": workhours.Compute(rec, sd.slots, sd.france),
	})
}

// ValidateSchedule checks a batch of schedule entries without writing them
func (h *Handler) ValidateSchedule(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}

	var input struct {
		Entries []scheduleEntry `json:"entries"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Entries) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one entry is required",
		})
		return
	}

	sd, err := newStoreDay(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	emps, err := h.employeeIndex(s.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	problems := validateEntries(input.Entries, emps, sd)
	if len(problems) > 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "errors": problems})
		return
	}

	var hours float64
	for _, e := range input.Entries {
		hours += workhours.Compute(entryRecord(e), sd.slots, sd.france).TotalHours
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"entry_count": len(input.Entries),
			"total_hours": hours,
		},
	})
}

// ImportCSV creates activity records from an uploaded schedule. The file
// has employee_id and date columns, an optional activity_type column and
// one column per slot label.
func (h *Handler) ImportCSV(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}
	act, ok := h.activity(c)
	if !ok {
		return
	}

	fh, _ := c.FormFile("schedule_file")
	if fh == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule_file is required"})
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open schedule file"})
		return
	}
	defer file.Close()

	sd, err := newStoreDay(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries, err := readScheduleCSV(file, sd.slots)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emps, err := h.employeeIndex(s.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}
	if problems := validateEntries(entries, emps, sd); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule", "errors": problems})
		return
	}

	records := make([]airtable.Record, 0, len(entries))
	for _, e := range entries {
		fields := workhours.ToFields(entryRecord(e), sd.slots)
		fields[workhours.FieldDate] = e.Date
		fields[workhours.FieldEmployee] = linkOrText(emps[e.EmployeeID].AirtableID, e.EmployeeID)
		fields[workhours.FieldStore] = linkOrText(s.AirtableID, s.Code)
		records = append(records, airtable.Record{Fields: fields})
	}

	created, err := act.Create(c.Request.Context(), airtable.TableActivity, records)
	if err != nil {
		h.upstreamError(c, "activity records", err)
		return
	}

	h.Logger.Info("schedule imported", "store", s.Code, "records", len(created))
	c.JSON(http.StatusCreated, gin.H{
		"store":   s.Code,
		"created": len(created),
	})
}

// readScheduleCSV parses an uploaded schedule. Columns that are not slot
// labels of the store are ignored.
func readScheduleCSV(r io.Reader, slots []string) ([]scheduleEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule header: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"employee_id", "date"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entries []scheduleEntry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e := scheduleEntry{
			EmployeeID:   cell(record, "employee_id"),
			Date:         cell(record, "date"),
			ActivityType: cell(record, "activity_type"),
			Slots:        map[string]string{},
		}
		if e.EmployeeID == "" && e.Date == "" {
			continue
		}
		for _, label := range slots {
			if v := cell(record, label); v != "" {
				e.Slots[label] = v
			}
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("schedule file has no rows")
	}
	return entries, nil
}

// validateEntries reports every problem found in entries
func validateEntries(entries []scheduleEntry, emps map[string]database.Employee, sd storeDay) []string {
	var problems []string
	seen := make(map[string]bool)
	for i, e := range entries {
		where := fmt.Sprintf("entry %d", i+1)
		if _, ok := emps[e.EmployeeID]; !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown employee %q", where, e.EmployeeID))
		}
		if _, err := time.Parse(dateLayout, e.Date); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid date %q", where, e.Date))
		}
		if bad := unknownSlots(e.Slots, sd.slots); len(bad) > 0 {
			problems = append(problems, fmt.Sprintf("%s: unknown slots %s", where, strings.Join(bad, ", ")))
		}
		key := e.EmployeeID + "|" + e.Date
		if seen[key] {
			problems = append(problems, fmt.Sprintf("%s: duplicate day %s for employee %s", where, e.Date, e.EmployeeID))
		}
		seen[key] = true
	}
	return problems
}

func entryRecord(e scheduleEntry) models.ActivitySlotRecord {
	return models.ActivitySlotRecord{
		EmployeeID:   e.EmployeeID,
		Date:         e.Date,
		ActivityType: e.ActivityType,
		Slots:        e.Slots,
	}
}

// employeeIndex maps the active employees of a store by external id
func (h *Handler) employeeIndex(storeCode string) (map[string]database.Employee, error) {
	emps, err := database.EmployeesByStore(h.DB, storeCode)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]database.Employee, len(emps))
	for _, e := range emps {
		idx[e.ExternalID] = e
	}
	return idx, nil
}

func unknownSlots(slots map[string]string, valid []string) []string {
	ok := make(map[string]bool, len(valid))
	for _, v := range valid {
		ok[v] = true
	}
	var bad []string
	for label := range slots {
		if !ok[label] {
			bad = append(bad, label)
		}
	}
	sort.Strings(bad)
	return bad
}

// linkOrText writes a linked record field when the Airtable id is known
func linkOrText(recordID, fallback string) any {
	if recordID != "" {
		return []string{recordID}
	}
	return fallback
}
