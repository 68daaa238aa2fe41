package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		contains []string
		wantErr  bool
	}{
		{
			name:     "postgres",
			cfg:      Config{Driver: DriverPostgres, Host: "db", Port: 5432, User: "nhs", Password: "pw", Database: "appts", SSLMode: "disable"},
			contains: []string{"host=db", "port=5432", "dbname=appts", "sslmode=disable"},
		},
		{
			name:     "mysql",
			cfg:      Config{Driver: DriverMySQL, Host: "db.example", Port: 3307, User: "u", Password: "p", Database: "appts"},
			contains: []string{"u:p@tcp(db.example:3307)/appts", "parseTime=true"},
		},
		{
			name:     "sqlite",
			cfg:      Config{Driver: DriverSQLite, Path: "./appointments.db"},
			contains: []string{"./appointments.db"},
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Driver: DriverSQLite},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.cfg.DSN()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, part := range tt.contains {
				assert.True(t, strings.Contains(dsn, part), "dsn %q should contain %q", dsn, part)
			}
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}

	db, err := Open(ctx, cfg, logging.NewNopLogger(), metrics.NewCollector("db_test", prometheus.NewRegistry()))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "create", `CREATE TABLE t (n INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "insert", db.Rebind(`INSERT INTO t (n) VALUES (?), (?)`), 1, 2)
	require.NoError(t, err)

	var got []int
	require.NoError(t, db.SelectContext(ctx, "select", &got, `SELECT n FROM t ORDER BY n`))
	assert.Equal(t, []int{1, 2}, got)
	assert.NoError(t, db.HealthCheck(ctx))
}
