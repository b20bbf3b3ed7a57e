package workhours

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

// Identification fields of the daily activity table
const (
	FieldEmployee     = "Empleado"
	FieldEmployeeName = "Nombre Empleado"
	FieldStore        = "Tienda"
	FieldDate         = "Fecha"
)

// FromFields builds a typed record from the raw field map of an activity
// row. Only the given slot labels are read as schedule slots. Numbers that
// do not parse become zero.
func FromFields(id string, fields map[string]any, slots []string) models.ActivitySlotRecord {
	rec := models.ActivitySlotRecord{
		ID:              id,
		EmployeeID:      Text(fields[FieldEmployee]),
		EmployeeName:    Text(fields[FieldEmployeeName]),
		StoreCode:       Text(fields[FieldStore]),
		Date:            Text(fields[FieldDate]),
		WorkedHours:     ParseNumber(fields[FieldWorkedHours]),
		HoursAdded:      ParseNumber(fields[FieldHoursAdded]),
		HoursSubtracted: ParseNumber(fields[FieldHoursSubtracted]),
		ActivityType:    strings.TrimSpace(Text(fields[FieldActivityType])),
		WeeklyActivity:  present(fields[FieldWeeklyActivity]),
		Slots:           make(map[string]string, len(slots)),
	}
	for _, label := range slots {
		if v, ok := fields[label]; ok {
			rec.Slots[label] = Text(v)
		}
	}
	return rec
}

// ToFields is the inverse of FromFields for the writable columns
func ToFields(rec models.ActivitySlotRecord, slots []string) map[string]any {
	fields := map[string]any{}
	if rec.ActivityType != "" {
		fields[FieldActivityType] = rec.ActivityType
	}
	for _, label := range slots {
		if v, ok := rec.Slots[label]; ok {
			fields[label] = v
		}
	}
	return fields
}

// ParseNumber reads a numeric field. Missing, malformed, NaN and infinite
// values read as 0.
func ParseNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case []any:
		// lookup and rollup fields arrive as single element arrays
		if len(n) == 0 {
			return 0
		}
		return ParseNumber(n[0])
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Text reads a field as a string. Linked record and lookup fields return
// their first element.
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []any:
		if len(s) == 0 {
			return ""
		}
		return Text(s[0])
	case []string:
		if len(s) == 0 {
			return ""
		}
		return s[0]
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func present(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(s) != ""
	case []any:
		return len(s) > 0
	case []string:
		return len(s) > 0
	case bool:
		return s
	default:
		return true
	}
}
