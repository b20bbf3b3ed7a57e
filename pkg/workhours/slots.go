package workhours

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

var ErrInvalidHours = errors.New("invalid opening hours")

// IsFrance reports whether a store country uses 15 minute slots
func IsFrance(country string) bool {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "fr", "fra", "france", "francia":
		return true
	}
	return false
}

// SlotLabels lists the "HH:MM" slot labels of a store day, from opening
// (inclusive) to closing (exclusive), every 30 minutes or every 15 in France.
func SlotLabels(opening, closing string, countryIsFrance bool) ([]string, error) {
	start, err := parseClock(opening)
	if err != nil {
		return nil, fmt.Errorf("%w: opening: %v", ErrInvalidHours, err)
	}
	end, err := parseClock(closing)
	if err != nil {
		return nil, fmt.Errorf("%w: closing: %v", ErrInvalidHours, err)
	}
	if end <= start {
		return nil, fmt.Errorf("%w: closing %s is not after opening %s", ErrInvalidHours, closing, opening)
	}

	step := 30
	if countryIsFrance {
		step = 15
	}
	labels := make([]string, 0, (end-start)/step+1)
	for m := start; m < end; m += step {
		labels = append(labels, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return labels, nil
}

// HourOf returns the "HH:00" hour a slot label belongs to
func HourOf(label string) string {
	if len(label) < 2 {
		return label
	}
	return label[:2] + ":00"
}

// SummarizeWeek rolls the daily results of one employee into a weekly total.
// days is keyed by date ("2006-01-02").
func SummarizeWeek(employeeID, name string, contractHours float64, days map[string]models.WorkHoursResult) models.EmployeeWeek {
	week := models.EmployeeWeek{
		EmployeeID:    employeeID,
		EmployeeName:  name,
		ContractHours: contractHours,
		Days:          days,
	}
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		r := days[d]
		week.TotalHours += r.TotalHours
		if r.IsWork {
			week.WorkedDays++
		}
	}
	week.Difference = week.TotalHours - contractHours
	return week
}

func parseClock(label string) (int, error) {
	if label == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", label)
	if err != nil || len(label) != 5 {
		return 0, fmt.Errorf("malformed time label %q", label)
	}
	return t.Hour()*60 + t.Minute(), nil
}
