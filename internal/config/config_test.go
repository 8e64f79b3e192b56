package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "DATABASE_DRIVER", "DATABASE_DSN", "MEMORY_PATH", "MEMORY_S3_REGION",
	"MEMORY_S3_ENDPOINT", "MEMORY_S3_ACCESS_KEY", "MEMORY_S3_SECRET_KEY",
	"PASSWORD_HASH_COST", "AUTH_TOKEN_SECRET", "AUTH_TOKEN_TTL", "LOG_LEVEL",
	"LOG_FORMAT", "CORS_ALLOWED_ORIGINS", "SAFETY_TABLE_PATH", "CONFIG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, DatabaseConfig{Driver: "sqlite", DSN: "file:echo.db"}, cfg.Database)
	require.Equal(t, "memory.json", cfg.Memory.Path)
	require.Equal(t, 12, cfg.Auth.PasswordCost)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Empty(t, cfg.Auth.TokenSecret)
	require.Equal(t, slog.LevelInfo, cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, SafetyConfig{}, cfg.Safety)
}

func TestLoadServerAddr(t *testing.T) {
	tests := []struct {
		port    string
		want    string
		wantErr bool
	}{
		{port: "9000", want: ":9000"},
		{port: ":7000", want: ":7000"},
		{port: "127.0.0.1:7000", want: "127.0.0.1:7000"},
		{port: "80 80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", tt.port)

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.Server.Addr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost/echo")
	t.Setenv("MEMORY_PATH", "s3://bucket/memory.json")
	t.Setenv("MEMORY_S3_REGION", "ap-south-1")
	t.Setenv("PASSWORD_HASH_COST", "10")
	t.Setenv("AUTH_TOKEN_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL", "90m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "pgx", cfg.Database.Driver)
	require.Equal(t, "postgres://u:p@localhost/echo", cfg.Database.DSN)
	require.Equal(t, "s3://bucket/memory.json", cfg.Memory.Path)
	require.Equal(t, "ap-south-1", cfg.Memory.S3Region)
	require.Equal(t, 10, cfg.Auth.PasswordCost)
	require.Equal(t, "s3cret", cfg.Auth.TokenSecret)
	require.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, slog.LevelDebug, cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"PASSWORD_HASH_COST": "twelve",
		"AUTH_TOKEN_TTL":     "soon",
		"LOG_LEVEL":          "loud",
		"LOG_FORMAT":         "xml",
		"DATABASE_DRIVER":    "oracle",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadNegativeTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_TOKEN_TTL", "-1h")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
memory_path: ":memory:"
password_hash_cost: 4
cors_allowed_origins:
  - http://localhost:3000
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PASSWORD_HASH_COST", "6")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, ":memory:", cfg.Memory.Path)
	// environment wins over the file
	require.Equal(t, 6, cfg.Auth.PasswordCost)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadSafetyTable(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "safety.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "keywords": ["give up", "no way out"],
  "crisis_reply": "Please reach out to someone now."
}`), 0o600))
	t.Setenv("SAFETY_TABLE_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"give up", "no way out"}, cfg.Safety.Keywords)
	require.Equal(t, "Please reach out to someone now.", cfg.Safety.CrisisReply)
	require.Empty(t, cfg.Safety.GenericReply)
}

func TestLoadSafetyEmptyPath(t *testing.T) {
	got, err := LoadSafety("  ")
	require.NoError(t, err)
	require.Equal(t, SafetyConfig{}, got)
}

func TestLoadSafetyMissingFile(t *testing.T) {
	_, err := LoadSafety(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
