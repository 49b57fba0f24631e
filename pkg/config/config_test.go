package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/classmeta/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Parse.SkipCode)
	assert.True(t, cfg.Parse.SkipDebug)
	assert.Equal(t, 4, cfg.Workspace.MaxWorker)
	assert.Equal(t, 10000, cfg.Workspace.CacheSize)
	assert.Empty(t, cfg.Workspace.Include)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./classmeta.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_CustomValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
parse:
  skip_code: false
  skip_debug: false
workspace:
  max_worker: 16
  include: ["com/example/**"]
  exclude: ["**/internal/**"]
  skip_jdk: true
  cache_size: 0
database:
  type: postgres
  host: db.example.com
  port: 5432
  database: classes
  user: admin
  password: secret
storage:
  type: cos
  bucket: artifacts-1250000000
  region: ap-guangzhou
`))
	require.NoError(t, err)

	assert.False(t, cfg.Parse.SkipCode)
	assert.False(t, cfg.Parse.SkipDebug)
	assert.Equal(t, 16, cfg.Workspace.MaxWorker)
	assert.Equal(t, []string{"com/example/**"}, cfg.Workspace.Include)
	assert.Equal(t, []string{"**/internal/**"}, cfg.Workspace.Exclude)
	assert.True(t, cfg.Workspace.SkipJDK)
	assert.Equal(t, 0, cfg.Workspace.CacheSize)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "classes", cfg.Database.Database)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "https", cfg.Storage.Scheme)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "parse: [unclosed\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfigError))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CLASSMETA_DATABASE_TYPE", "mysql")
	t.Setenv("CLASSMETA_DATABASE_HOST", "mysql.local")

	cfg, err := Load(writeConfig(t, "database:\n  type: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`
database:
  type: mysql
  host: mysql.local
`))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Workspace: WorkspaceConfig{MaxWorker: 1},
			Database:  DatabaseConfig{Type: "sqlite", Path: ":memory:"},
			Storage:   StorageConfig{Type: "local"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero workers", func(c *Config) { c.Workspace.MaxWorker = 0 }, "max_worker must be at least 1"},
		{"negative cache", func(c *Config) { c.Workspace.CacheSize = -1 }, "cache_size must not be negative"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database path is required"},
		{"postgres without host", func(c *Config) { c.Database.Type = "postgres" }, "database host is required for postgres"},
		{"unknown database", func(c *Config) { c.Database.Type = "oracle" }, "unsupported database type: oracle"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "s3" }, "unsupported storage type: s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
