package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"nhs-dashboard/internal/config"
	"nhs-dashboard/internal/models"
	"nhs-dashboard/internal/services"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

// Global flag values.
var (
	configFile  string
	datasetPath string
	verbose     bool
	quiet       bool
	noColor     bool
)

// Populated by PersistentPreRunE.
var (
	cfg       *config.Config
	logger    *logging.StructuredLogger
	collector *metrics.Collector
)

// rootCmd is the base command for dashctl.
var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Inspect and export the NHS appointments dataset",
	Long: `dashctl loads the same appointments dataset as the dashboard server and
prints its KPIs, exports the aggregates to Excel or renders the charts as SVG.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&datasetPath, "dataset", "d", "", "dataset file, overrides dataset.path and forces the file source")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress logs and progress output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.LoadConfigWithFile(configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return withExitCode(ExitInvalidArgs, fmt.Errorf("failed to load configuration: %w", err))
	}

	if datasetPath != "" {
		cfg.Dataset.Source = config.SourceFile
		cfg.Dataset.Path = datasetPath
	}
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitInvalidArgs, fmt.Errorf("invalid configuration: %w", err))
	}

	if quiet {
		logger = logging.NewNopLogger()
	} else {
		logger = logging.NewStructuredLogger("dashctl", Version, logging.WarnLevel)
		logger.SetOutput(cmd.ErrOrStderr())
		if verbose {
			logger.SetLevel(logging.DebugLevel)
		}
	}

	if noColor {
		color.NoColor = true
	}

	collector = metrics.NewCollector("dashctl", prometheus.NewRegistry())
	return nil
}

// loadAggregates loads the configured dataset and aggregates it. A CSV file
// read from a terminal session shows a byte progress bar on stderr.
func loadAggregates(ctx context.Context) (*models.Aggregates, error) {
	loader := services.NewLoaderService(logger, collector)

	result, err := loadWithProgress(ctx, loader)
	if err != nil {
		return nil, withExitCode(ExitLoadFailure, err)
	}

	return services.NewAggregationService(logger, collector).Aggregate(ctx, result.Records), nil
}

func loadWithProgress(ctx context.Context, loader *services.LoaderService) (*services.LoadResult, error) {
	path := cfg.Dataset.Path
	if cfg.Dataset.Source != config.SourceFile ||
		strings.EqualFold(filepath.Ext(path), ".xlsx") ||
		quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return loader.LoadDataset(ctx, cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		// LoadDataset reports the missing file as a LoadError
		return loader.LoadDataset(ctx, cfg)
	}
	defer f.Close()

	var size int64 = -1
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("loading "+filepath.Base(path)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	return loader.LoadCSV(ctx, path, io.TeeReader(f, bar))
}
