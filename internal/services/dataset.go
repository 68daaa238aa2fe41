package services

import (
	"context"
	"fmt"

	"nhs-dashboard/internal/config"
	"nhs-dashboard/internal/repository"
	"nhs-dashboard/pkg/database"
)

// LoadDataset loads the records selected by cfg.Dataset. Every failure is a
// *models.LoadError; the caller treats it as fatal.
func (s *LoaderService) LoadDataset(ctx context.Context, cfg *config.Config) (*LoadResult, error) {
	switch cfg.Dataset.Source {
	case config.SourceFile:
		return s.LoadFile(ctx, cfg.Dataset.Path, cfg.Dataset.Sheet)

	case config.SourceDatabase:
		source := fmt.Sprintf("%s:%s", cfg.Database.Driver, cfg.Dataset.Table)

		db, err := database.Open(ctx, cfg.DatabaseConnConfig(), s.logger, s.metrics)
		if err != nil {
			return nil, s.fail(ctx, source, "db_error", err)
		}
		defer db.Close()

		repo, err := repository.NewAppointmentRepository(db, cfg.Dataset.Table, s.logger, s.metrics)
		if err != nil {
			return nil, s.fail(ctx, source, "config_error", err)
		}
		return s.LoadFromRepository(ctx, repo, source)

	default:
		return nil, s.fail(ctx, cfg.Dataset.Source, "config_error",
			fmt.Errorf("unsupported dataset source %q", cfg.Dataset.Source))
	}
}
