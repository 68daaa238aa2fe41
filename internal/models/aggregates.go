package models

import "time"

// KPISummary holds the headline figures of the dashboard.
// AvgPerMonth is nil when the dataset has no months.
type KPISummary struct {
	TotalAppointments int64  `json:"total_appointments"`
	TotalMonths       int    `json:"total_months"`
	AvgPerMonth       *int64 `json:"avg_per_month"`
}

// MonthlyPoint is the summed count of one (month, mode) group
type MonthlyPoint struct {
	Month time.Time `json:"appointment_month"`
	Mode  string    `json:"appointment_mode"`
	Count int64     `json:"count_of_appointments"`
}

// MonthlySeries holds one entry per distinct (month, mode), sorted by month then mode
type MonthlySeries []MonthlyPoint

// Total sums the counts of the series
func (s MonthlySeries) Total() int64 {
	var total int64
	for _, p := range s {
		total += p.Count
	}
	return total
}

// SeasonTotal is the summed count of one season
type SeasonTotal struct {
	Season Season `json:"season"`
	Count  int64  `json:"count_of_appointments"`
}

// SeasonalSeries holds the seasons present in the data, in SeasonOrder
type SeasonalSeries []SeasonTotal

// Total sums the counts of the series
func (s SeasonalSeries) Total() int64 {
	var total int64
	for _, st := range s {
		total += st.Count
	}
	return total
}

// Aggregates is computed once from the loaded records and shared read-only
// by every query and presentation call for the lifetime of the process.
type Aggregates struct {
	KPIs        KPISummary     `json:"kpis"`
	Modes       []string       `json:"modes"`
	Monthly     MonthlySeries  `json:"monthly"`
	Seasonal    SeasonalSeries `json:"seasonal"`
	RecordCount int            `json:"record_count"`
}
