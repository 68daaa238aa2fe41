package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

// AggregationService derives the dashboard aggregates from loaded records
type AggregationService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AggregationService {
	return &AggregationService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Aggregate computes the aggregates and logs the resulting KPIs
func (s *AggregationService) Aggregate(ctx context.Context, records []*models.AppointmentRecord) *models.Aggregates {
	timer := s.metrics.NewTimer(s.metrics.AggregationDuration)
	agg := Aggregate(records)
	duration := timer.ObserveDuration()

	fields := logging.Fields{
		"records":            agg.RecordCount,
		"total_appointments": agg.KPIs.TotalAppointments,
		"total_months":       agg.KPIs.TotalMonths,
		"modes":              len(agg.Modes),
		"seasons":            len(agg.Seasonal),
		"duration_ms":        duration.Milliseconds(),
	}
	if agg.KPIs.AvgPerMonth == nil {
		s.logger.Warn(ctx, "[AGGREGATE_EMPTY] Dataset has no months, average per month unavailable", fields)
	} else {
		fields["avg_per_month"] = *agg.KPIs.AvgPerMonth
		s.logger.Info(ctx, "[AGGREGATE_COMPLETE] Aggregates computed", fields)
	}

	return agg
}

// Aggregate computes KPIs, distinct modes, the monthly series and the
// seasonal series. It does not modify records and returns equal results for
// equal input.
func Aggregate(records []*models.AppointmentRecord) *models.Aggregates {
	type monthModeKey struct {
		month time.Time
		mode  string
	}

	monthly := make(map[monthModeKey]int64)
	seasonal := make(map[models.Season]int64)
	months := make(map[time.Time]struct{})
	var total int64

	for _, r := range records {
		month := models.TruncateToMonth(r.Month)
		total += r.Count
		months[month] = struct{}{}
		monthly[monthModeKey{month: month, mode: r.Mode}] += r.Count

		season := r.Season
		if season == "" {
			season = models.SeasonForMonth(month.Month())
		}
		seasonal[season] += r.Count
	}

	agg := &models.Aggregates{
		KPIs: models.KPISummary{
			TotalAppointments: total,
			TotalMonths:       len(months),
			AvgPerMonth:       averagePerMonth(total, len(months)),
		},
		Modes: lo.Uniq(lo.Map(records, func(r *models.AppointmentRecord, _ int) string {
			return r.Mode
		})),
		Monthly:     make(models.MonthlySeries, 0, len(monthly)),
		Seasonal:    make(models.SeasonalSeries, 0, len(models.SeasonOrder)),
		RecordCount: len(records),
	}

	for key, count := range monthly {
		agg.Monthly = append(agg.Monthly, models.MonthlyPoint{Month: key.month, Mode: key.mode, Count: count})
	}
	SortMonthly(agg.Monthly)

	for _, season := range models.SeasonOrder {
		if count, ok := seasonal[season]; ok {
			agg.Seasonal = append(agg.Seasonal, models.SeasonTotal{Season: season, Count: count})
		}
	}

	return agg
}

// averagePerMonth rounds total/months half to even. It returns nil for an
// empty dataset instead of dividing by zero.
func averagePerMonth(total int64, months int) *int64 {
	if months == 0 {
		return nil
	}
	avg := decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(months))).
		RoundBank(0).
		IntPart()
	return &avg
}

// SortMonthly orders a series by month ascending, then mode
func SortMonthly(series models.MonthlySeries) {
	slices.SortStableFunc(series, func(a, b models.MonthlyPoint) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return strings.Compare(a.Mode, b.Mode)
	})
}
