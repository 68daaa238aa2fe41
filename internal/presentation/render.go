package presentation

import (
	"errors"
	"fmt"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when a figure has nothing to draw
var ErrNoData = errors.New("figure has no data")

const (
	chartWidth  = 1024
	chartHeight = 480
)

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return FormatCount(int64(f))
	}
	return ""
}

// yRange starts the count axis at zero; go-chart rejects zero-height ranges
func yRange(max float64) *chart.ContinuousRange {
	if max <= 0 {
		max = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: max * 1.1}
}

// RenderLineSVG draws the line figure as SVG
func RenderLineSVG(w io.Writer, fig LineFigure) error {
	if len(fig.Points) == 0 {
		return ErrNoData
	}

	var (
		maxY         float64
		first, last  time.Time
		series       []chart.Series
		seriesByName = make(map[string]int)
	)
	for i, p := range fig.Points {
		if i == 0 || p.Month.Before(first) {
			first = p.Month
		}
		if i == 0 || p.Month.After(last) {
			last = p.Month
		}
		if y := float64(p.Y); y > maxY {
			maxY = y
		}

		idx, ok := seriesByName[p.Series]
		if !ok {
			idx = len(series)
			seriesByName[p.Series] = idx
			series = append(series, chart.TimeSeries{
				Name:  p.Series,
				Style: chart.Style{StrokeColor: chart.GetDefaultColor(idx), StrokeWidth: 2},
			})
		}
		ts := series[idx].(chart.TimeSeries)
		ts.XValues = append(ts.XValues, p.Month)
		ts.YValues = append(ts.YValues, float64(p.Y))
		series[idx] = ts
	}

	xAxis := chart.XAxis{
		Name:           fig.XLabel,
		ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
	}
	if first.Equal(last) {
		xAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first.AddDate(0, 0, -15)),
			Max: chart.TimeToFloat64(last.AddDate(0, 0, 15)),
		}
	}

	graph := chart.Chart{
		Title:      fig.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:           fig.YLabel,
			Range:          yRange(maxY),
			ValueFormatter: countFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render line chart: %w", err)
	}
	return nil
}

// RenderBarSVG draws the bar figure as SVG
func RenderBarSVG(w io.Writer, fig BarFigure) error {
	if len(fig.Bars) == 0 {
		return ErrNoData
	}

	var maxY float64
	bars := make([]chart.Value, 0, len(fig.Bars))
	for _, b := range fig.Bars {
		v := float64(b.Value)
		if v > maxY {
			maxY = v
		}
		bars = append(bars, chart.Value{Label: b.Category, Value: v})
	}

	graph := chart.BarChart{
		Title:      fig.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   120,
		Background: chart.Style{Padding: chart.Box{Top: 50}},
		YAxis: chart.YAxis{
			Name:           fig.YLabel,
			Range:          yRange(maxY),
			ValueFormatter: countFormatter,
		},
		Bars: bars,
	}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("failed to render bar chart: %w", err)
	}
	return nil
}
