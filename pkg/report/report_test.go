package report

import (
	"bytes"
	"testing"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWeekly_Bytes(t *testing.T) {
	w := &Weekly{
		StoreCode: "MAD01",
		StoreName: "Madrid",
		Days:      []string{"2026-10-19", "2026-10-20"},
		Employees: []models.EmployeeWeek{
			{
				EmployeeName:  "Ana",
				ContractHours: 20,
				TotalHours:    8,
				Difference:    -12,
				Days: map[string]models.WorkHoursResult{
					"2026-10-19": {TotalHours: 8, IsWork: true, Status: "Work (8 h)"},
					"2026-10-20": {ActivityType: "Vacaciones", Status: "Free"},
				},
			},
		},
		Recommendations: map[string]models.HourlyRecommendation{
			"10:00": {Entries: 50, Recommendation: 2, Formula: "(50 / 25) * (1 + 0) = 2"},
			"09:00": {Entries: 25, Recommendation: 1, Formula: "(25 / 25) * (1 + 0) = 1"},
		},
		Fairness: 100,
	}

	data, err := w.Bytes()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "MAD01 Madrid (2026-10-19 / 2026-10-20)", get(SheetSchedule, "A1"))
	assert.Equal(t, "Empleado", get(SheetSchedule, "A3"))
	assert.Equal(t, "Diferencia", get(SheetSchedule, "F3"))
	assert.Equal(t, "Ana", get(SheetSchedule, "A4"))
	assert.Equal(t, "8", get(SheetSchedule, "B4"))
	assert.Equal(t, "Vacaciones", get(SheetSchedule, "C4"))
	assert.Equal(t, "-12", get(SheetSchedule, "F4"))

	assert.Equal(t, "09:00", get(SheetRecommendations, "A2"))
	assert.Equal(t, "10:00", get(SheetRecommendations, "A3"))
	assert.Equal(t, "(50 / 25) * (1 + 0) = 2", get(SheetRecommendations, "D3"))
}
