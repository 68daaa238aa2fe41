package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhs-dashboard/pkg/database"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8050, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, SourceFile, cfg.Dataset.Source)
	assert.Equal(t, "appointments_regional.csv", cfg.Dataset.Path)
	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NHS_DASHBOARD_SERVER_PORT", "9090")
	t.Setenv("NHS_DASHBOARD_DATASET_PATH", "/data/appointments.xlsx")
	t.Setenv("NHS_DASHBOARD_LOGGING_LEVEL", "debug")
	t.Setenv("NHS_DASHBOARD_DATABASE_CONN_MAX_LIFETIME", "1h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/appointments.xlsx", cfg.Dataset.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
}

func TestLoadConfigWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	content := `
server:
  port: 8181
dataset:
  source: database
  table: gp_appointments
database:
  driver: sqlite3
  path: /tmp/appointments.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, SourceDatabase, cfg.Dataset.Source)
	assert.Equal(t, "gp_appointments", cfg.Dataset.Table)
	require.NoError(t, cfg.Validate())

	dbCfg := cfg.DatabaseConnConfig()
	assert.Equal(t, database.DriverSQLite, dbCfg.Driver)
	assert.Equal(t, "/tmp/appointments.db", dbCfg.Path)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8050},
			Dataset:  DatasetConfig{Source: SourceFile, Path: "a.csv", Table: "appointments"},
			Database: DatabaseConfig{Driver: database.DriverMySQL},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid file source", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty path", func(c *Config) { c.Dataset.Path = " " }, true},
		{"unknown source", func(c *Config) { c.Dataset.Source = "s3" }, true},
		{"database source", func(c *Config) { c.Dataset.Source = SourceDatabase }, false},
		{"database source without table", func(c *Config) {
			c.Dataset.Source = SourceDatabase
			c.Dataset.Table = ""
		}, true},
		{"database source unknown driver", func(c *Config) {
			c.Dataset.Source = SourceDatabase
			c.Database.Driver = "oracle"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
