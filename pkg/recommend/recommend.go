// Package recommend turns hourly foot-traffic counts into staffing
// recommendations for a store.
package recommend

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
)

const (
	DefaultDesiredAttention = 25.0
	DefaultGrowthFactor     = 0.0
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNoData           = errors.New("no traffic data")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Result holds the recommendation per "HH:00" hour and the parameters used
type Result struct {
	Recommendations map[string]models.HourlyRecommendation `json:"recommendations"`
	Parameters      models.RecommendationParameters        `json:"parameters"`
}

// Hours returns the recommended hours in ascending order
func (r *Result) Hours() []string {
	hours := make([]string, 0, len(r.Recommendations))
	for h := range r.Recommendations {
		hours = append(hours, h)
	}
	sort.Strings(hours)
	return hours
}

// DefaultParameters returns the parameters used when a store has none configured
func DefaultParameters() models.RecommendationParameters {
	return models.RecommendationParameters{
		DesiredAttention: DefaultDesiredAttention,
		GrowthFactor:     DefaultGrowthFactor,
	}
}

// ValidateRange rejects a date range whose start is after its end
func ValidateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}

// Compute sums the samples per hour, keeps the hours inside
// [OpeningTime, ClosingTime) and recommends
// (entries / DesiredAttention) * (1 + GrowthFactor) staff for each.
func Compute(samples []models.TrafficSample, params models.RecommendationParameters) (*Result, error) {
	if math.IsNaN(params.DesiredAttention) || math.IsInf(params.DesiredAttention, 0) || params.DesiredAttention <= 0 {
		return nil, fmt.Errorf("%w: desired attention must be positive, got %v", ErrInvalidParameter, params.DesiredAttention)
	}
	if math.IsNaN(params.GrowthFactor) || math.IsInf(params.GrowthFactor, 0) {
		return nil, fmt.Errorf("%w: growth factor must be finite", ErrInvalidParameter)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	opening, closing := -1, -1
	if params.OpeningTime != "" {
		m, err := ParseClock(params.OpeningTime)
		if err != nil {
			return nil, fmt.Errorf("%w: opening time: %v", ErrInvalidParameter, err)
		}
		opening = m
	}
	if params.ClosingTime != "" {
		m, err := ParseClock(params.ClosingTime)
		if err != nil {
			return nil, fmt.Errorf("%w: closing time: %v", ErrInvalidParameter, err)
		}
		closing = m
	}

	totals := make(map[string]int)
	for _, s := range samples {
		if s.Entries < 0 {
			return nil, fmt.Errorf("%w: negative entries at %s %s", ErrInvalidParameter, s.Date.Format("2006-01-02"), s.Hour)
		}
		m, err := ParseClock(s.Hour)
		if err != nil {
			return nil, fmt.Errorf("%w: sample hour: %v", ErrInvalidParameter, err)
		}
		if opening >= 0 && m < opening {
			continue
		}
		if closing >= 0 && m >= closing {
			continue
		}
		totals[s.Hour] += s.Entries
	}

	recs := make(map[string]models.HourlyRecommendation, len(totals))
	for hour, entries := range totals {
		raw := (float64(entries) / params.DesiredAttention) * (1 + params.GrowthFactor)
		value := raw
		formula := fmt.Sprintf("(%d / %s) * (1 + %s) = %s",
			entries, formatNumber(params.DesiredAttention), formatNumber(params.GrowthFactor), formatNumber(Round2(raw)))
		if params.RoundToInteger {
			value = math.Floor(raw + 0.5)
			formula += " ≈ " + formatNumber(value)
		}
		recs[hour] = models.HourlyRecommendation{
			Entries:        entries,
			Recommendation: value,
			Formula:        formula,
		}
	}

	return &Result{Recommendations: recs, Parameters: params}, nil
}

// Round2 rounds a recommendation to two decimals for display
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseClock converts an "HH:MM" label to minutes after midnight
func ParseClock(label string) (int, error) {
	if label == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", label)
	if err != nil || len(label) != 5 {
		return 0, fmt.Errorf("malformed time label %q", label)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
