package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/internal/services"
)

var (
	renderOutput string
	renderMode   string
)

// renderCmd writes one chart as SVG.
var renderCmd = &cobra.Command{
	Use:       "render {line|bar}",
	Short:     "Render a dashboard chart as SVG",
	Long:      "Render the mode line chart (optionally filtered with --mode) or the seasonal bar chart as SVG.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"line", "bar"},
	RunE:      runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "SVG path (default <chart>.svg)")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", "", "appointment mode for the line chart")
}

func runRender(cmd *cobra.Command, args []string) error {
	agg, err := loadAggregates(cmd.Context())
	if err != nil {
		return err
	}

	svc := services.NewDashboardService(agg, logger, collector)

	var buf bytes.Buffer
	switch args[0] {
	case "line":
		err = presentation.RenderLineSVG(&buf, svc.ModeLine(cmd.Context(), renderMode, "cli"))
	case "bar":
		err = presentation.RenderBarSVG(&buf, svc.SeasonBar())
	}
	if errors.Is(err, presentation.ErrNoData) {
		return withExitCode(ExitWriteFailure, fmt.Errorf("nothing to render: the selection has no appointments"))
	}
	if err != nil {
		return withExitCode(ExitWriteFailure, fmt.Errorf("render %s chart: %w", args[0], err))
	}

	out := renderOutput
	if out == "" {
		out = args[0] + ".svg"
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return withExitCode(ExitWriteFailure, fmt.Errorf("write %s: %w", out, err))
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	}
	return nil
}
