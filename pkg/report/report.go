// Package report renders the weekly schedule of a store as a spreadsheet.
package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSchedule        = "Horario"
	SheetRecommendations = "Recomendaciones"
)

// Weekly is the data of a weekly store report
type Weekly struct {
	StoreCode       string
	StoreName       string
	Days            []string // "2006-01-02", Monday first
	Employees       []models.EmployeeWeek
	Recommendations map[string]models.HourlyRecommendation
	Fairness        float64
}

// Workbook builds the report spreadsheet
func (w *Weekly) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSchedule); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetRecommendations); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s %s", w.StoreCode, w.StoreName)
	if len(w.Days) > 0 {
		title += fmt.Sprintf(" (%s / %s)", w.Days[0], w.Days[len(w.Days)-1])
	}
	if err := f.SetCellValue(SheetSchedule, "A1", title); err != nil {
		return nil, err
	}

	header := []any{"Empleado"}
	for _, d := range w.Days {
		header = append(header, d)
	}
	header = append(header, "Total", "Contrato", "Diferencia")
	if err := setRow(f, SheetSchedule, 3, header); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(SheetSchedule, "A3", lastCol+"3", bold); err != nil {
		return nil, err
	}

	for i, emp := range w.Employees {
		row := []any{emp.EmployeeName}
		for _, d := range w.Days {
			day, ok := emp.Days[d]
			switch {
			case !ok:
				row = append(row, "")
			case day.IsWork:
				row = append(row, day.TotalHours)
			case day.ActivityType != "":
				row = append(row, day.ActivityType)
			default:
				row = append(row, day.Status)
			}
		}
		row = append(row, emp.TotalHours, emp.ContractHours, emp.Difference)
		if err := setRow(f, SheetSchedule, 4+i, row); err != nil {
			return nil, err
		}
	}

	footer := 5 + len(w.Employees)
	if err := setRow(f, SheetSchedule, footer, []any{"Equidad (%)", w.Fairness}); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetSchedule, "A", "A", 28); err != nil {
		return nil, err
	}

	if err := setRow(f, SheetRecommendations, 1, []any{"Hora", "Entradas", "Recomendación", "Cálculo"}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetRecommendations, "A1", "D1", bold); err != nil {
		return nil, err
	}
	hours := make([]string, 0, len(w.Recommendations))
	for h := range w.Recommendations {
		hours = append(hours, h)
	}
	sort.Strings(hours)
	for i, h := range hours {
		rec := w.Recommendations[h]
		if err := setRow(f, SheetRecommendations, 2+i, []any{h, rec.Entries, rec.Recommendation, rec.Formula}); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(SheetRecommendations, "D", "D", 40); err != nil {
		return nil, err
	}

	return f, nil
}

// Bytes renders the workbook as an .xlsx file
func (w *Weekly) Bytes() ([]byte, error) {
	f, err := w.Workbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
