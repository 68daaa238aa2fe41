package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"nhs-dashboard/internal/config"
	"nhs-dashboard/internal/repository"
	"nhs-dashboard/internal/services"
	"nhs-dashboard/pkg/database"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	migrationsDir := flag.String("dir", "migrations", "Directory containing migration files")
	seed := flag.String("seed", "", "Optional CSV or XLSX file to load into the dataset table after migrating up")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Invalid direction %q, expected up or down\n", *direction)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("nhs-migrate", "1.0.0", logLevel)
	logger.SetOutput(os.Stderr)
	metricsCollector := metrics.NewCollector("nhs_migrate", prometheus.NewRegistry())

	ctx := context.Background()

	// Connect to database
	db, err := database.Open(ctx, cfg.DatabaseConnConfig(), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")

	// Read migration file
	migrationFile := filepath.Join(*migrationsDir, fmt.Sprintf("001_create_appointments.%s.sql", *direction))
	content, err := os.ReadFile(migrationFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration file: %v\n", err)
		os.Exit(1)
	}

	ddl, err := repository.RenderMigration(string(content), cfg.Dataset.Table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid dataset table: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running migration: %s (table %s)\n", migrationFile, cfg.Dataset.Table)

	// Execute migration
	if _, err := db.ExecContext(ctx, "migrate", ddl); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")

	if *seed == "" || *direction != "up" {
		return
	}

	loader := services.NewLoaderService(logger, metricsCollector)
	result, err := loader.LoadFile(ctx, *seed, cfg.Dataset.Sheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read seed file: %v\n", err)
		os.Exit(1)
	}

	repo, err := repository.NewAppointmentRepository(db, cfg.Dataset.Table, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid dataset table: %v\n", err)
		os.Exit(1)
	}

	if err := repo.HealthCheck(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Database not ready for seeding: %v\n", err)
		os.Exit(1)
	}

	if err := repo.InsertAppointments(ctx, result.Records); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed appointments: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d appointment rows into %s\n", len(result.Records), cfg.Dataset.Table)
}
