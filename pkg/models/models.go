package models

import "time"

// TrafficSample is the number of customer entries counted in one hour of one day
type TrafficSample struct {
	Date    time.Time `json:"date"`
	Hour    string    `json:"hour"` // "HH:00"
	Entries int       `json:"entries"`
}

// RecommendationParameters tunes the staffing recommendation for a store
type RecommendationParameters struct {
	DesiredAttention float64 `json:"desired_attention"`
	GrowthFactor     float64 `json:"growth_factor"`
	OpeningTime      string  `json:"opening_time,omitempty"`
	ClosingTime      string  `json:"closing_time,omitempty"`
	RoundToInteger   bool    `json:"round_to_integer"`
}

// HourlyRecommendation is the recommended staffing for a single hour
type HourlyRecommendation struct {
	Entries        int     `json:"entries"`
	Recommendation float64 `json:"recommendation"`
	Formula        string  `json:"formula"`
}

// ActivitySlotRecord is one employee's activity for one day
type ActivitySlotRecord struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	EmployeeName    string            `json:"employee_name,omitempty"`
	StoreCode       string            `json:"store_code,omitempty"`
	Date            string            `json:"date"` // "2006-01-02"
	WorkedHours     float64           `json:"worked_hours"`
	HoursAdded      float64           `json:"hours_added"`
	HoursSubtracted float64           `json:"hours_subtracted"`
	ActivityType    string            `json:"activity_type,omitempty"`
	WeeklyActivity  bool              `json:"weekly_activity"`
	Slots           map[string]string `json:"slots"` // "HH:MM" -> status
}

// WorkHoursResult is the resolved work time of an ActivitySlotRecord
type WorkHoursResult struct {
	TotalHours        float64  `json:"total_hours"`
	ActivityType      string   `json:"activity_type"`
	Status            string   `json:"status"`
	IsWork            bool     `json:"is_work"`
	SlotCount         int      `json:"slot_count"`
	SlotDurationHours float64  `json:"slot_duration_hours"`
	WorkSlots         []string `json:"work_slots,omitempty"`
}

// StoreInfo is a store as reported by the HR API
type StoreInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
}

// EmployeeInfo is an employee as reported by the HR API
type EmployeeInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	StoreCode     string  `json:"store_code"`
	ContractHours float64 `json:"contract_hours"`
	Active        bool    `json:"active"`
}

// HourCoverage compares scheduled staff with the recommendation for one hour
type HourCoverage struct {
	Hour           string  `json:"hour"`
	Scheduled      float64 `json:"scheduled"`
	Recommendation float64 `json:"recommendation"`
	Gap            float64 `json:"gap"` // recommendation - scheduled
}

// EmployeeWeek is the weekly roll-up for one employee
type EmployeeWeek struct {
	EmployeeID    string                     `json:"employee_id"`
	EmployeeName  string                     `json:"employee_name"`
	ContractHours float64                    `json:"contract_hours"`
	TotalHours    float64                    `json:"total_hours"`
	WorkedDays    int                        `json:"worked_days"`
	Difference    float64                    `json:"difference"` // total - contract
	Days          map[string]WorkHoursResult `json:"days"`
}
