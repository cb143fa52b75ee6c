// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/lifeos/internal/offline"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "lifeos.yaml", `
server:
  http_addr: "0.0.0.0:9090"
  shutdown_timeout: "10s"

database:
  driver: "sqlite"
  path: "./test.db"
  quota_bytes: 1024

cache:
  name: "life-os-v2"
  dir: "./web"
  assets: ["/", "/app.js"]

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/prom"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./test.db", cfg.Database.Path)
	assert.Equal(t, int64(1024), cfg.Database.QuotaBytes)
	assert.Equal(t, "life-os-v2", cfg.Cache.Name)
	assert.Equal(t, "./web", cfg.Cache.Dir)
	assert.Equal(t, []string{"/", "/app.js"}, cfg.Cache.Assets)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/prom", cfg.Metrics.Path)
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "lifeos.toml", `
[server]
http_addr = "127.0.0.1:7070"

[database]
driver = "postgres"
dsn = "postgres://localhost/lifeos"

[cache]
origin = "http://localhost:5173"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7070", cfg.Server.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/lifeos", cfg.Database.DSN)
	assert.Empty(t, cfg.Database.Path, "postgres does not get a default sqlite path")
	assert.Equal(t, "http://localhost:5173", cfg.Cache.Origin)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("LIFEOS_DB_PATH", "")

	cfg, err := Parse([]byte("{}"), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join("/data", "lifeos", "lifeos.db"), cfg.Database.Path)
	assert.Equal(t, offline.DefaultName, cfg.Cache.Name)
	assert.Equal(t, offline.DefaultAssets, cfg.Cache.Assets)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestDefaultMatchesEmptyParse(t *testing.T) {
	t.Setenv("LIFEOS_DB_PATH", "")
	parsed, err := Parse([]byte(""), "yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), parsed)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_LIFEOS_SECRET", strings.Repeat("s", 32))
	t.Setenv("TEST_LIFEOS_ADDR", "localhost:1234")

	path := writeConfig(t, "lifeos.yaml", `
server:
  http_addr: "${TEST_LIFEOS_ADDR}"
auth:
  jwt_secret: "${TEST_LIFEOS_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:1234", cfg.Server.HTTPAddr)
	assert.Equal(t, strings.Repeat("s", 32), cfg.Auth.JWTSecret)
}

func TestLoad_DBPathOverride(t *testing.T) {
	t.Setenv("LIFEOS_DB_PATH", "/tmp/override.db")

	path := writeConfig(t, "lifeos.yaml", "database:\n  path: ./ignored.db\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_LIFEOS_A", "alpha")

	got := expandEnvVars("a=${TEST_LIFEOS_A} b=${TEST_LIFEOS_UNSET_VAR} c=$PLAIN")
	if got != "a=alpha b= c=$PLAIN" {
		t.Errorf("expandEnvVars() = %q", got)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("LIFEOS_DB_PATH", "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown driver",
			content: "database:\n  driver: mysql\n",
			wantErr: "database.driver must be one of: sqlite postgres",
		},
		{
			name:    "postgres without dsn",
			content: "database:\n  driver: postgres\n",
			wantErr: "database.dsn is required",
		},
		{
			name:    "short jwt secret",
			content: "auth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least 32 characters",
		},
		{
			name:    "tailscale without hostname",
			content: "tailscale:\n  enabled: true\n",
			wantErr: "tailscale.hostname is required",
		},
		{
			name:    "bad log level",
			content: "logging:\n  level: loud\n",
			wantErr: "logging.level must be one of",
		},
		{
			name:    "relative asset",
			content: "cache:\n  assets: [\"app.js\"]\n",
			wantErr: `cache.assets[0] must start with "/"`,
		},
		{
			name:    "bad origin",
			content: "cache:\n  origin: \"not a url\"\n",
			wantErr: "cache.origin must be a valid URL",
		},
		{
			name:    "bad duration",
			content: "server:\n  shutdown_timeout: soon\n",
			wantErr: "parsing shutdown_timeout",
		},
		{
			name:    "negative duration",
			content: "server:\n  shutdown_timeout: -1s\n",
			wantErr: "shutdown_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte(""), "ini")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("LIFEOS_CONFIG", "/etc/lifeos.toml")
		assert.Equal(t, "/etc/lifeos.toml", Path())
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("LIFEOS_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/cfg")
		assert.Equal(t, filepath.Join("/cfg", "lifeos", "lifeos.yaml"), Path())
	})
}
