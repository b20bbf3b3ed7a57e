package workhours

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var daySlots = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}

func TestCompute_SlotScanWins(t *testing.T) {
	rec := models.ActivitySlotRecord{
		WorkedHours:  3,
		ActivityType: "Trabajo Fijo",
		Slots: map[string]string{
			"09:00": "TRABAJO",
			"09:30": "trabajo tienda",
			"10:00": "DESCANSO",
		},
	}

	res := Compute(rec, daySlots, false)

	assert.Equal(t, 1.0, res.TotalHours)
	assert.True(t, res.IsWork)
	assert.Equal(t, "Work (1 h)", res.Status)
	assert.Equal(t, 2, res.SlotCount)
	assert.Equal(t, 0.5, res.SlotDurationHours)
	assert.Equal(t, "Trabajo Fijo", res.ActivityType)
	assert.Equal(t, []string{"09:00", "09:30"}, res.WorkSlots)
}

func TestCompute_Precedence(t *testing.T) {
	tests := map[string]struct {
		record    models.ActivitySlotRecord
		wantHours float64
		wantWork  bool
		wantType  string
		status    string
	}{
		"empty record is free": {
			record: models.ActivitySlotRecord{}, wantHours: 0, wantWork: false, status: "Free",
		},
		"pre-aggregated hours": {
			record:    models.ActivitySlotRecord{WorkedHours: 7.5},
			wantHours: 7.5, wantWork: true, status: "Work (7.5 h)",
		},
		"deltas override pre-aggregated hours": {
			record:    models.ActivitySlotRecord{WorkedHours: 8, HoursAdded: 4, HoursSubtracted: 1},
			wantHours: 3, wantWork: true, status: "Work (3 h)",
		},
		"deltas netting to zero are not work": {
			record:    models.ActivitySlotRecord{WorkedHours: 8, HoursAdded: 2, HoursSubtracted: 2},
			wantHours: 0, wantWork: false, status: "Free",
		},
		"negative deltas clamp to zero": {
			record:    models.ActivitySlotRecord{HoursSubtracted: 3},
			wantHours: 0, wantWork: false, status: "Free",
		},
		"work label forces work without hours": {
			record:    models.ActivitySlotRecord{ActivityType: "TRABAJO TURNO FIJO"},
			wantHours: 0, wantWork: true, wantType: "TRABAJO TURNO FIJO", status: "Work (0 h)",
		},
		"work label overrides negative deltas": {
			record:    models.ActivitySlotRecord{HoursSubtracted: 2, ActivityType: "trabajo"},
			wantHours: 0, wantWork: true, wantType: "trabajo", status: "Work (0 h)",
		},
		"non-work label": {
			record:    models.ActivitySlotRecord{ActivityType: "Vacaciones"},
			wantHours: 0, wantWork: false, wantType: "Vacaciones", status: "Free",
		},
		"non-work label keeps numeric work": {
			record:    models.ActivitySlotRecord{WorkedHours: 4, ActivityType: "Formación"},
			wantHours: 4, wantWork: true, wantType: "Formación", status: "Work (4 h)",
		},
		"weekly activity sentinel": {
			record:    models.ActivitySlotRecord{WeeklyActivity: true},
			wantHours: 0, wantWork: false, wantType: WeeklyActivityType, status: "Free",
		},
		"type label beats weekly activity": {
			record:    models.ActivitySlotRecord{WeeklyActivity: true, ActivityType: "Baja"},
			wantHours: 0, wantWork: false, wantType: "Baja", status: "Free",
		},
		"slots override free label": {
			record: models.ActivitySlotRecord{
				ActivityType: "Vacaciones",
				Slots:        map[string]string{"10:00": "Trabajo", "10:30": "TRABAJO", "11:00": "TRABAJO"},
			},
			wantHours: 1.5, wantWork: true, wantType: "Vacaciones", status: "Work (1.5 h)",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res := Compute(tc.record, daySlots, false)
			assert.Equal(t, tc.wantHours, res.TotalHours)
			assert.Equal(t, tc.wantWork, res.IsWork)
			assert.Equal(t, tc.wantType, res.ActivityType)
			assert.Equal(t, tc.status, res.Status)
			assert.GreaterOrEqual(t, res.TotalHours, 0.0)
		})
	}
}

func TestCompute_OnlyListedSlotsAreScanned(t *testing.T) {
	rec := models.ActivitySlotRecord{
		Slots: map[string]string{"09:00": "TRABAJO", "22:00": "TRABAJO", "Notas": "TRABAJO"},
	}
	res := Compute(rec, daySlots, false)
	assert.Equal(t, 1, res.SlotCount)
	assert.Equal(t, 0.5, res.TotalHours)
}

func TestCompute_France(t *testing.T) {
	rec := models.ActivitySlotRecord{
		Slots: map[string]string{"09:00": "TRABAJO", "09:15": "TRABAJO", "09:30": "TRABAJO", "09:45": "TRABAJO"},
	}
	slots := []string{"09:00", "09:15", "09:30", "09:45"}

	fr := Compute(rec, slots, true)
	es := Compute(rec, slots, false)

	assert.Equal(t, 0.25, fr.SlotDurationHours)
	assert.Equal(t, 0.5, es.SlotDurationHours)
	assert.Equal(t, 1.0, fr.TotalHours)
	assert.Equal(t, 2.0, es.TotalHours)
	assert.Equal(t, es.TotalHours/2, fr.TotalHours)
	assert.Equal(t, "Work (1 h)", fr.Status)
}

func TestFromFields(t *testing.T) {
	fields := map[string]any{
		FieldEmployee:        []any{"recEMP1"},
		FieldEmployeeName:    []any{"Lucía Pérez"},
		FieldStore:           "MAD01",
		FieldDate:            "2026-10-19",
		FieldWorkedHours:     "7,5",
		FieldHoursAdded:      json.Number("1"),
		FieldHoursSubtracted: "abc",
		FieldActivityType:    " Trabajo ",
		FieldWeeklyActivity:  []any{"recWEEK"},
		"09:00":              "TRABAJO",
		"09:30":              []any{"DESCANSO"},
		"23:00":              "TRABAJO",
	}

	rec := FromFields("rec1", fields, daySlots)

	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, "recEMP1", rec.EmployeeID)
	assert.Equal(t, "Lucía Pérez", rec.EmployeeName)
	assert.Equal(t, "MAD01", rec.StoreCode)
	assert.Equal(t, "2026-10-19", rec.Date)
	assert.Equal(t, 7.5, rec.WorkedHours)
	assert.Equal(t, 1.0, rec.HoursAdded)
	assert.Equal(t, 0.0, rec.HoursSubtracted)
	assert.Equal(t, "Trabajo", rec.ActivityType)
	assert.True(t, rec.WeeklyActivity)
	assert.Equal(t, map[string]string{"09:00": "TRABAJO", "09:30": "DESCANSO"}, rec.Slots)

	back := ToFields(rec, daySlots)
	assert.Equal(t, "TRABAJO", back["09:00"])
	assert.Equal(t, "Trabajo", back[FieldActivityType])
	assert.NotContains(t, back, "23:00")
}

func TestParseNumber(t *testing.T) {
	tests := map[string]struct {
		in   any
		want float64
	}{
		"nil":          {nil, 0},
		"float":        {4.25, 4.25},
		"int":          {3, 3},
		"string":       {"2.5", 2.5},
		"comma":        {"2,5", 2.5},
		"garbage":      {"n/a", 0},
		"empty":        {"", 0},
		"nan string":   {"NaN", 0},
		"inf string":   {"Inf", 0},
		"nan float":    {math.NaN(), 0},
		"lookup array": {[]any{6.0}, 6},
		"empty array":  {[]any{}, 0},
		"bool":         {true, 0},
		"json number":  {json.Number("8"), 8},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseNumber(tc.in))
		})
	}
}

func TestSlotLabels(t *testing.T) {
	es, err := SlotLabels("09:00", "11:00", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, es)

	fr, err := SlotLabels("09:00", "10:00", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, fr)

	late, err := SlotLabels("22:30", "24:00", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"22:30", "23:00", "23:30"}, late)

	_, err = SlotLabels("10:00", "09:00", false)
	assert.ErrorIs(t, err, ErrInvalidHours)
	_, err = SlotLabels("nine", "21:00", false)
	assert.ErrorIs(t, err, ErrInvalidHours)
}

func TestIsFrance(t *testing.T) {
	for _, c := range []string{"FR", "fr", "France", "Francia"} {
		assert.True(t, IsFrance(c), c)
	}
	for _, c := range []string{"ES", "España", "", "Portugal"} {
		assert.False(t, IsFrance(c), c)
	}
}

func TestSummarizeWeek(t *testing.T) {
	days := map[string]models.WorkHoursResult{
		"2026-10-19": {TotalHours: 8, IsWork: true},
		"2026-10-20": {TotalHours: 6.5, IsWork: true},
		"2026-10-21": {Status: StatusFree},
	}
	week := SummarizeWeek("e1", "Ana", 20, days)
	assert.Equal(t, 14.5, week.TotalHours)
	assert.Equal(t, 2, week.WorkedDays)
	assert.Equal(t, -5.5, week.Difference)
	assert.Equal(t, "09:00", HourOf("09:30"))
}
