package presentation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nhs-dashboard/internal/models"
)

func scenarioAggregates() *models.Aggregates {
	avg := int64(115)
	return &models.Aggregates{
		KPIs:  models.KPISummary{TotalAppointments: 230, TotalMonths: 2, AvgPerMonth: &avg},
		Modes: []string{"F2F", "Phone"},
		Monthly: models.MonthlySeries{
			{Month: month(2023, 1), Mode: "F2F", Count: 100},
			{Month: month(2023, 1), Mode: "Phone", Count: 50},
			{Month: month(2023, 2), Mode: "F2F", Count: 80},
		},
		Seasonal:    models.SeasonalSeries{{Season: models.Winter, Count: 230}},
		RecordCount: 3,
	}
}

func TestRenderLineSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderLineSVG(&buf, LineChart(scenarioAggregates().Monthly, "")))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderLineSVG_SingleMonth(t *testing.T) {
	agg := scenarioAggregates()
	var buf bytes.Buffer
	require.NoError(t, RenderLineSVG(&buf, LineChart(agg.Monthly[1:2], "Phone")))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderSVG_NoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderLineSVG(&buf, LineChart(models.MonthlySeries{}, "Video")), ErrNoData)
	assert.ErrorIs(t, RenderBarSVG(&buf, SeasonBars(nil)), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestRenderBarSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBarSVG(&buf, SeasonBars(scenarioAggregates().Seasonal)))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "Winter")
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, scenarioAggregates()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total Appointments", "230"}, summary[1])
	assert.Equal(t, []string{"Avg per Month", "115"}, summary[3])

	monthly, err := f.GetRows(MonthlySheet)
	require.NoError(t, err)
	require.Len(t, monthly, 4)
	assert.Equal(t, []string{"2023-01", "Phone", "50"}, monthly[2])

	seasonal, err := f.GetRows(SeasonalSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Winter", "230"}, seasonal[1])
}

func TestWriteWorkbook_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, &models.Aggregates{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Avg per Month", NotAvailable}, summary[3])
}
