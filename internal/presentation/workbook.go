package presentation

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"nhs-dashboard/internal/models"
)

// Workbook sheet names
const (
	SummarySheet  = "Summary"
	MonthlySheet  = "Monthly"
	SeasonalSheet = "Seasonal"
)

// WriteWorkbook writes the aggregates as an XLSX workbook with a summary,
// the monthly series by mode and the seasonal totals.
func WriteWorkbook(w io.Writer, agg *models.Aggregates) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{MonthlySheet, SeasonalSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	var avg interface{} = NotAvailable
	if agg.KPIs.AvgPerMonth != nil {
		avg = *agg.KPIs.AvgPerMonth
	}

	sheets := map[string][][]interface{}{
		SummarySheet: {
			{"Metric", "Value"},
			{"Total Appointments", agg.KPIs.TotalAppointments},
			{"Total Months", agg.KPIs.TotalMonths},
			{"Avg per Month", avg},
		},
		MonthlySheet:  {{models.ColumnMonth, models.ColumnMode, models.ColumnCount}},
		SeasonalSheet: {{"Season", models.ColumnCount}},
	}
	for _, p := range LinePoints(agg.Monthly) {
		sheets[MonthlySheet] = append(sheets[MonthlySheet], []interface{}{p.X, p.Series, p.Y})
	}
	for _, b := range SeasonBars(agg.Seasonal).Bars {
		sheets[SeasonalSheet] = append(sheets[SeasonalSheet], []interface{}{b.Category, b.Value})
	}

	for sheet, rows := range sheets {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			}
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "A", "C", 24); err != nil {
			return fmt.Errorf("failed to size %s columns: %w", sheet, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
