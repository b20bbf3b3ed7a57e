package scheduler

import (
	"testing"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

func TestCoverage(t *testing.T) {
	slots := []string{"09:00", "09:30", "10:00", "10:30"}
	records := []models.ActivitySlotRecord{
		{EmployeeID: "e1", Slots: map[string]string{"09:00": "TRABAJO", "09:30": "TRABAJO", "10:00": "TRABAJO"}},
		{EmployeeID: "e2", Slots: map[string]string{"09:30": "TRABAJO", "10:00": "DESCANSO"}},
	}
	recs := map[string]models.HourlyRecommendation{
		"09:00": {Recommendation: 2},
		"10:00": {Recommendation: 1},
		"11:00": {Recommendation: 1.5},
	}

	cov := Coverage(recs, records, slots, false)

	if len(cov) != 3 {
		t.Fatalf("Expected 3 hours of coverage, got %d", len(cov))
	}
	if cov[0].Hour != "09:00" || cov[0].Scheduled != 1.5 || cov[0].Gap != 0.5 {
		t.Errorf("Unexpected 09:00 coverage: %+v", cov[0])
	}
	if cov[1].Hour != "10:00" || cov[1].Scheduled != 0.5 || cov[1].Gap != 0.5 {
		t.Errorf("Unexpected 10:00 coverage: %+v", cov[1])
	}
	if cov[2].Hour != "11:00" || cov[2].Scheduled != 0 || cov[2].Gap != 1.5 {
		t.Errorf("Unexpected 11:00 coverage: %+v", cov[2])
	}

	under := UnderstaffedHours(cov, 1)
	if len(under) != 1 || under[0] != "11:00" {
		t.Errorf("Expected only 11:00 to be understaffed, got %v", under)
	}
}

func TestCoverage_France(t *testing.T) {
	slots := []string{"09:00", "09:15", "09:30", "09:45"}
	records := []models.ActivitySlotRecord{
		{Slots: map[string]string{"09:00": "TRABAJO", "09:15": "TRABAJO", "09:30": "TRABAJO", "09:45": "TRABAJO"}},
	}
	cov := Coverage(nil, records, slots, true)
	if len(cov) != 1 || cov[0].Scheduled != 1 {
		t.Errorf("Expected one full person at 09:00, got %+v", cov)
	}
}

func TestFairnessScore(t *testing.T) {
	if got := FairnessScore(nil); got != 100 {
		t.Errorf("Expected 100 for no employees, got %f", got)
	}
	if got := FairnessScore([]float64{0, 0}); got != 100 {
		t.Errorf("Expected 100 when nobody works, got %f", got)
	}
	if got := FairnessScore([]float64{20, 20, 20}); got != 100 {
		t.Errorf("Expected 100 for equal hours, got %f", got)
	}
	if got := FairnessScore([]float64{40, 0}); got != 0 {
		t.Errorf("Expected 0 when SD equals mean, got %f", got)
	}
	got := FairnessScore([]float64{30, 10})
	if got != 50 {
		t.Errorf("Expected 50, got %f", got)
	}
}

func TestContractFairness(t *testing.T) {
	weeks := []models.EmployeeWeek{
		{ContractHours: 40, TotalHours: 40},
		{ContractHours: 20, TotalHours: 20},
		{ContractHours: 0, TotalHours: 12},
	}
	if got := ContractFairness(weeks); got != 100 {
		t.Errorf("Expected 100 when everyone meets contract, got %f", got)
	}
}
