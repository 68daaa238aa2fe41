package services

import (
	"context"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

// Filter outcomes reported to metrics
const (
	OutcomeAll       = "all"
	OutcomeMatch     = "match"
	OutcomeNoMatch   = "no_match"
	OutcomeMalformed = "malformed"
)

// DashboardService answers dashboard queries from precomputed aggregates.
// The aggregates are never modified, so one service is shared by all requests.
type DashboardService struct {
	agg     *models.Aggregates
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardService creates a new dashboard service over agg
func NewDashboardService(agg *models.Aggregates, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		agg:     agg,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Aggregates returns the shared read-only aggregates
func (s *DashboardService) Aggregates() *models.Aggregates {
	return s.agg
}

// Summary returns the KPI summary
func (s *DashboardService) Summary() models.KPISummary {
	return s.agg.KPIs
}

// Cards returns the formatted KPI cards
func (s *DashboardService) Cards() []presentation.KPICard {
	return presentation.KPICards(s.agg.KPIs)
}

// ModeOptions returns the dropdown entries in first-seen order
func (s *DashboardService) ModeOptions() []presentation.Option {
	return presentation.DropdownOptions(s.agg.Modes)
}

// SeasonBar returns the static seasonal bar figure
func (s *DashboardService) SeasonBar() presentation.BarFigure {
	return presentation.SeasonBars(s.agg.Seasonal)
}

// FilteredSeries resolves a raw filter value and returns the matching
// monthly series along with the mode actually applied ("" for none).
func (s *DashboardService) FilteredSeries(ctx context.Context, rawMode, transport string) (models.MonthlySeries, string) {
	mode, ok := NormalizeMode(rawMode)
	if !ok {
		s.logger.Warn(ctx, "[FILTER_MALFORMED] Ignoring malformed mode filter", logging.Fields{
			"transport": transport,
			"length":    len(rawMode),
		})
		s.metrics.RecordFilterEvent(transport, OutcomeMalformed)
		return FilterByMode(s.agg.Monthly, ""), ""
	}

	series := FilterByMode(s.agg.Monthly, mode)

	outcome := OutcomeMatch
	switch {
	case mode == "":
		outcome = OutcomeAll
	case len(series) == 0:
		outcome = OutcomeNoMatch
	}
	s.metrics.RecordFilterEvent(transport, outcome)

	s.logger.Debug(ctx, "[FILTER_APPLIED] Mode filter applied", logging.Fields{
		"transport": transport,
		"mode":      mode,
		"points":    len(series),
		"outcome":   outcome,
	})

	return series, mode
}

// ModeLine handles one filter-change event: it returns the fully specified
// line figure for the selected mode, or for all modes when rawMode is empty
// or malformed.
func (s *DashboardService) ModeLine(ctx context.Context, rawMode, transport string) presentation.LineFigure {
	series, mode := s.FilteredSeries(ctx, rawMode, transport)
	return presentation.LineChart(series, mode)
}
