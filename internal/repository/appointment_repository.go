package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/pkg/database"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TablePlaceholder marks the table name in migration files
const TablePlaceholder = "{{table}}"

// RenderMigration substitutes the dataset table name into migration DDL
func RenderMigration(ddl, table string) (string, error) {
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return strings.ReplaceAll(ddl, TablePlaceholder, table), nil
}

// AppointmentRepository provides read-only access to appointment rows stored in SQL
type AppointmentRepository interface {
	ListAppointments(ctx context.Context) ([]*models.RawAppointmentRecord, error)
	InsertAppointments(ctx context.Context, records []*models.AppointmentRecord) error
	HealthCheck(ctx context.Context) error
}

// appointmentRow mirrors the selected columns; cells are scanned as text so
// that DATE, TEXT and integer columns all go through the same validation as
// file sources.
type appointmentRow struct {
	Month string `db:"appointment_month"`
	Mode  string `db:"appointment_mode"`
	Count string `db:"count_of_appointments"`
}

type appointmentRepository struct {
	db      *database.DB
	table   string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAppointmentRepository creates a repository reading from table
func NewAppointmentRepository(db *database.DB, table string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (AppointmentRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	return &appointmentRepository{
		db:      db,
		table:   table,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// ListAppointments returns every row of the table ordered by month and mode.
// Row numbers start at 2 to line up with file sources, where row 1 is the header.
func (r *appointmentRepository) ListAppointments(ctx context.Context) ([]*models.RawAppointmentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s
		FROM %s
		ORDER BY %s, %s
	`, models.ColumnMonth, models.ColumnMode, models.ColumnCount, r.table, models.ColumnMonth, models.ColumnMode)

	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, "list_appointments", &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	records := make([]*models.RawAppointmentRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, &models.RawAppointmentRecord{
			Row:   i + 2,
			Month: row.Month,
			Mode:  row.Mode,
			Count: row.Count,
		})
	}

	r.logger.Debug(ctx, "[REPO_LIST_APPOINTMENTS] Appointments read", logging.Fields{
		"table": r.table,
		"rows":  len(records),
	})

	return records, nil
}

// InsertAppointments writes records in a single transaction
func (r *appointmentRepository) InsertAppointments(ctx context.Context, records []*models.AppointmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"table":       r.table,
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES (?, ?, ?)
	`, r.table, models.ColumnMonth, models.ColumnMode, models.ColumnCount)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Month.Format("2006-01-02"), rec.Mode, rec.Count); err != nil {
			r.metrics.RecordDBError("insert_error")
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck checks database connectivity
func (r *appointmentRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
