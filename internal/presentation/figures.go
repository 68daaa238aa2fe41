// Package presentation turns aggregates into chart-ready series and
// display strings. It does no I/O; the handlers serialize its output.
package presentation

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nhs-dashboard/internal/models"
)

// Chart titles and axis labels
const (
	LineTitle     = "Appointments Over Time by Mode"
	BarTitle      = "Total NHS Appointments by Season"
	MonthLabel    = "Month"
	SeasonLabel   = "Season"
	CountLabel    = "Appointments"
	NotAvailable  = "N/A"
	displayLocale = "en-GB"
)

// PlotPoint binds one monthly group to x, y and series (line colour)
type PlotPoint struct {
	X      string    `json:"x"`
	Month  time.Time `json:"-"`
	Y      int64     `json:"y"`
	Series string    `json:"series"`
}

// Trace is the points of one series, ready for a line renderer
type Trace struct {
	Name string   `json:"name"`
	X    []string `json:"x"`
	Y    []int64  `json:"y"`
}

// LineFigure is the complete payload of the mode line chart
type LineFigure struct {
	Title  string      `json:"title"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	Mode   string      `json:"mode,omitempty"`
	Points []PlotPoint `json:"points"`
	Traces []Trace     `json:"traces"`
}

// BarPoint is one bar of the seasonal chart
type BarPoint struct {
	Category string `json:"category"`
	Value    int64  `json:"value"`
}

// BarFigure is the complete payload of the season bar chart
type BarFigure struct {
	Title  string     `json:"title"`
	XLabel string     `json:"x_label"`
	YLabel string     `json:"y_label"`
	Bars   []BarPoint `json:"bars"`
}

// KPICard is one headline card
type KPICard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Option is one entry of the mode dropdown
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LinePoints maps a monthly series to plot points sorted by month, ties by mode.
// The input is not reordered.
func LinePoints(series models.MonthlySeries) []PlotPoint {
	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b models.MonthlyPoint) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return strings.Compare(a.Mode, b.Mode)
	})

	points := make([]PlotPoint, 0, len(sorted))
	for _, p := range sorted {
		points = append(points, PlotPoint{
			X:      p.Month.Format(models.MonthLayout),
			Month:  p.Month,
			Y:      p.Count,
			Series: p.Mode,
		})
	}
	return points
}

// LineChart builds the line figure for an already filtered series. mode is
// the active filter, empty when none.
func LineChart(series models.MonthlySeries, mode string) LineFigure {
	points := LinePoints(series)

	traces := make([]Trace, 0)
	index := make(map[string]int)
	for _, p := range points {
		i, ok := index[p.Series]
		if !ok {
			i = len(traces)
			index[p.Series] = i
			traces = append(traces, Trace{Name: p.Series})
		}
		traces[i].X = append(traces[i].X, p.X)
		traces[i].Y = append(traces[i].Y, p.Y)
	}

	return LineFigure{
		Title:  LineTitle,
		XLabel: MonthLabel,
		YLabel: CountLabel,
		Mode:   mode,
		Points: points,
		Traces: traces,
	}
}

// SeasonBars maps seasonal totals to bars in Winter, Spring, Summer, Autumn
// order whatever the input order. Seasons absent from the input are omitted.
func SeasonBars(seasonal models.SeasonalSeries) BarFigure {
	totals := make(map[models.Season]int64, len(seasonal))
	for _, st := range seasonal {
		totals[st.Season] += st.Count
	}

	bars := make([]BarPoint, 0, len(totals))
	for _, season := range models.SeasonOrder {
		if v, ok := totals[season]; ok {
			bars = append(bars, BarPoint{Category: string(season), Value: v})
		}
	}

	return BarFigure{
		Title:  BarTitle,
		XLabel: SeasonLabel,
		YLabel: CountLabel,
		Bars:   bars,
	}
}

// KPICards formats the summary for the three headline cards
func KPICards(kpis models.KPISummary) []KPICard {
	avg := NotAvailable
	if kpis.AvgPerMonth != nil {
		avg = FormatCount(*kpis.AvgPerMonth)
	}

	return []KPICard{
		{ID: "total-appointments", Title: "Total Appointments", Value: FormatCount(kpis.TotalAppointments)},
		{ID: "total-months", Title: "Total Months", Value: FormatCount(int64(kpis.TotalMonths))},
		{ID: "avg-per-month", Title: "Avg per Month", Value: avg},
	}
}

// DropdownOptions maps modes to dropdown entries, keeping their order
func DropdownOptions(modes []string) []Option {
	options := make([]Option, 0, len(modes))
	for _, m := range modes {
		options = append(options, Option{Label: m, Value: m})
	}
	return options
}

var countPrinter = message.NewPrinter(language.MustParse(displayLocale))

// FormatCount renders n with thousands separators, e.g. 1234567 as "1,234,567"
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}
