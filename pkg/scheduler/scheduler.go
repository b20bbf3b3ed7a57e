package scheduler

import (
	"math"
	"sort"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
)

// Coverage compares, hour by hour, the staff scheduled in a day's activity
// records with the recommended staffing. Scheduled staff is the number of
// people working on average during the hour, so two employees covering
// half an hour each count as one.
func Coverage(recs map[string]models.HourlyRecommendation, records []models.ActivitySlotRecord, slots []string, countryIsFrance bool) []models.HourCoverage {
	slotDuration := workhours.SlotDuration(countryIsFrance)

	scheduled := make(map[string]float64)
	for _, rec := range records {
		for _, label := range slots {
			if workhours.IsWorkSlot(rec.Slots[label]) {
				scheduled[workhours.HourOf(label)] += slotDuration
			}
		}
	}

	hours := make(map[string]bool, len(recs)+len(scheduled))
	for h := range recs {
		hours[h] = true
	}
	for h := range scheduled {
		hours[h] = true
	}

	out := make([]models.HourCoverage, 0, len(hours))
	for h := range hours {
		rec := recs[h].Recommendation
		out = append(out, models.HourCoverage{
			Hour:           h,
			Scheduled:      scheduled[h],
			Recommendation: rec,
			Gap:            rec - scheduled[h],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// UnderstaffedHours returns the hours whose gap is larger than tolerance
func UnderstaffedHours(coverage []models.HourCoverage, tolerance float64) []string {
	var hours []string
	for _, c := range coverage {
		if c.Gap > tolerance {
			hours = append(hours, c.Hour)
		}
	}
	return hours
}

// FairnessScore returns a percentage (0-100) representing how evenly
// hours are distributed. 100% is perfectly fair (Standard Deviation = 0).
func FairnessScore(hours []float64) float64 {
	if len(hours) == 0 {
		return 100.0
	}

	var sum float64
	for _, h := range hours {
		sum += h
	}

	if sum == 0 {
		return 100.0 // Everyone having 0 hours is perfectly fair
	}

	mean := sum / float64(len(hours))

	var varianceSum float64
	for _, h := range hours {
		diff := h - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(hours)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// ContractFairness scores how evenly hours are spread relative to each
// employee's contract, using worked/contract ratios. Employees without
// contract hours are ignored.
func ContractFairness(weeks []models.EmployeeWeek) float64 {
	ratios := make([]float64, 0, len(weeks))
	for _, w := range weeks {
		if w.ContractHours > 0 {
			ratios = append(ratios, w.TotalHours/w.ContractHours)
		}
	}
	return FairnessScore(ratios)
}
