package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/internal/services"
)

var summaryMode string

// summaryCmd prints the KPI cards, modes and seasonal totals.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print KPIs, modes and seasonal totals",
	Long: `Print the three KPI cards, the appointment modes and the seasonal totals.
With --mode, also print the monthly series for that mode.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryMode, "mode", "m", "", "print the monthly series for this appointment mode")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	agg, err := loadAggregates(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	_, _ = fmt.Fprintln(w, bold.Sprint("NHS Appointments Dashboard"))
	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, card := range presentation.KPICards(agg.KPIs) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", card.Title, green.Sprint(card.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", bold.Sprint("Modes:"))
	if len(agg.Modes) == 0 {
		_, _ = fmt.Fprintln(w, dim.Sprint("  (none)"))
	}
	for _, m := range agg.Modes {
		_, _ = fmt.Fprintf(w, "  - %s\n", m)
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", bold.Sprint(presentation.BarTitle+":"))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, bar := range presentation.SeasonBars(agg.Seasonal).Bars {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", bar.Category, presentation.FormatCount(bar.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if summaryMode == "" {
		return nil
	}
	return printSeries(cmd, agg, summaryMode)
}

func printSeries(cmd *cobra.Command, agg *models.Aggregates, rawMode string) error {
	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)

	svc := services.NewDashboardService(agg, logger, collector)
	series, mode := svc.FilteredSeries(cmd.Context(), rawMode, "cli")

	_, _ = fmt.Fprintf(w, "\n%s %s\n", bold.Sprint("Monthly series:"), mode)
	if len(series) == 0 {
		_, _ = fmt.Fprintln(w, yellow.Sprintf("  no appointments recorded for mode %q", rawMode))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range presentation.LinePoints(series) {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.X, p.Series, presentation.FormatCount(p.Y))
	}
	return tw.Flush()
}
