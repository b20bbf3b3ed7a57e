// Package workhours resolves the hours an employee worked on a day from
// the activity record kept for that day.
//
// A record can carry up to four signals: a pre-aggregated hours field,
// hours added/subtracted deltas, an activity type label and the per-slot
// schedule grid. They are applied in that order and each later signal
// that is present overwrites what the earlier ones decided.
package workhours

import (
	"strconv"
	"strings"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

// Upstream field names of the daily activity table
const (
	FieldWorkedHours     = "Horas Trabajadas"
	FieldHoursAdded      = "Horas +"
	FieldHoursSubtracted = "Horas -"
	FieldActivityType    = "Tipo Actividad"
	FieldWeeklyActivity  = "Actividad Semanal"
)

const (
	WorkMarker         = "TRABAJO"
	WeeklyActivityType = "Actividad Semanal"
	StatusFree         = "Free"
)

// SlotDuration returns the length of one schedule slot in hours
func SlotDuration(countryIsFrance bool) float64 {
	if countryIsFrance {
		return 0.25
	}
	return 0.5
}

// Compute resolves the worked hours of a record. slots is the ordered list
// of slot labels valid for the store that day.
func Compute(record models.ActivitySlotRecord, slots []string, countryIsFrance bool) models.WorkHoursResult {
	res := models.WorkHoursResult{
		SlotDurationHours: SlotDuration(countryIsFrance),
	}

	if record.WorkedHours > 0 {
		res.TotalHours = record.WorkedHours
		res.IsWork = true
	}

	if record.HoursAdded > 0 || record.HoursSubtracted > 0 {
		res.TotalHours = record.HoursAdded - record.HoursSubtracted
		res.IsWork = res.TotalHours > 0
	}

	if record.ActivityType != "" {
		res.ActivityType = record.ActivityType
		if strings.Contains(strings.ToLower(record.ActivityType), "trabajo") {
			res.IsWork = true
		}
	} else if record.WeeklyActivity {
		res.ActivityType = WeeklyActivityType
	}

	for _, label := range slots {
		if IsWorkSlot(record.Slots[label]) {
			res.SlotCount++
			res.WorkSlots = append(res.WorkSlots, label)
		}
	}
	if res.SlotCount > 0 {
		res.TotalHours = float64(res.SlotCount) * res.SlotDurationHours
		res.IsWork = true
	}

	if res.TotalHours < 0 {
		res.TotalHours = 0
	}

	res.Status = Status(res.TotalHours, res.IsWork)
	return res
}

// Status formats the display status of a day
func Status(totalHours float64, isWork bool) string {
	if !isWork {
		return StatusFree
	}
	return "Work (" + strconv.FormatFloat(totalHours, 'f', -1, 64) + " h)"
}

// IsWorkSlot reports whether a slot status marks the slot as worked
func IsWorkSlot(status string) bool {
	return strings.Contains(strings.ToUpper(status), WorkMarker)
}
