package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
)

const dateLayout = "2006-01-02"

// storeDay describes the slot grid of a store
type storeDay struct {
	slots  []string
	france bool
}

func newStoreDay(s *database.Store) (storeDay, error) {
	france := workhours.IsFrance(s.Country)
	slots, err := workhours.SlotLabels(s.OpeningTime, s.ClosingTime, france)
	if err != nil {
		return storeDay{}, fmt.Errorf("store %s: %w", s.Code, err)
	}
	return storeDay{slots: slots, france: france}, nil
}

// dayRow is one aggregated activity record
type dayRow struct {
	Record models.ActivitySlotRecord
	Result models.WorkHoursResult
}

// weekData is the aggregated schedule of a store for one week
type weekData struct {
	Days      []string
	Employees []models.EmployeeWeek
	Rows      map[string][]dayRow // date -> rows
}

// parseDate reads a "2006-01-02" query value, falling back to def
func parseDate(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of the week containing t
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// loadRows fetches and aggregates the activity records of a store between
// from and to
func (h *Handler) loadRows(ctx context.Context, act ActivityStore, s *database.Store, sd storeDay, from, to time.Time) (map[string][]dayRow, error) {
	recs, err := act.ActivityRecords(ctx, s.Code, from, to)
	if err != nil {
		return nil, err
	}

	rows := make(map[string][]dayRow)
	for _, r := range recs {
		rec := workhours.FromFields(r.ID, r.Fields, sd.slots)
		if len(rec.Date) > len(dateLayout) {
			rec.Date = rec.Date[:len(dateLayout)]
		}
		rows[rec.Date] = append(rows[rec.Date], dayRow{
			Record: rec,
			Result: workhours.Compute(rec, sd.slots, sd.france),
		})
	}
	metrics.ActivityRecordsAggregated.Add(float64(len(recs)))
	return rows, nil
}

// loadWeek aggregates a store's week starting on monday, one roll-up per
// active employee plus any employee found only in the activity table
func (h *Handler) loadWeek(ctx context.Context, act ActivityStore, s *database.Store, sd storeDay, monday time.Time) (*weekData, error) {
	sunday := monday.AddDate(0, 0, 6)
	rows, err := h.loadRows(ctx, act, s, sd, monday, sunday)
	if err != nil {
		return nil, err
	}

	emps, err := database.EmployeesByStore(h.DB, s.Code)
	if err != nil {
		return nil, fmt.Errorf("loading employees: %w", err)
	}

	type acc struct {
		name     string
		contract float64
		days     map[string]models.WorkHoursResult
	}
	byKey := make(map[string]*acc)
	alias := make(map[string]string)
	var order []string
	for _, e := range emps {
		byKey[e.ExternalID] = &acc{name: e.Name, contract: e.ContractHours, days: map[string]models.WorkHoursResult{}}
		order = append(order, e.ExternalID)
		if e.AirtableID != "" {
			alias[e.AirtableID] = e.ExternalID
		}
	}

	days := make([]string, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format(dateLayout)
	}

	var extra []string
	for _, d := range days {
		for _, row := range rows[d] {
			key := row.Record.EmployeeID
			if k, ok := alias[key]; ok {
				key = k
			}
			a, ok := byKey[key]
			if !ok {
				a = &acc{name: row.Record.EmployeeName, days: map[string]models.WorkHoursResult{}}
				byKey[key] = a
				extra = append(extra, key)
			}
			if a.name == "" {
				a.name = row.Record.EmployeeName
			}
			if prev, ok := a.days[d]; ok {
				// several rows for the same day add up
				row.Result.TotalHours += prev.TotalHours
				row.Result.IsWork = row.Result.IsWork || prev.IsWork
				row.Result.Status = workhours.Status(row.Result.TotalHours, row.Result.IsWork)
			}
			a.days[d] = row.Result
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	week := &weekData{Days: days, Rows: rows}
	for _, key := range order {
		a := byKey[key]
		week.Employees = append(week.Employees, workhours.SummarizeWeek(key, a.name, a.contract, a.days))
	}
	return week, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
