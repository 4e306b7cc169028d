package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.SelectCacheTTL)
	assert.Equal(t, "local", cfg.UploadDriver)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	assert.True(t, cfg.LogEnabled)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("DATABASE_DRIVER", "SQLITE")
	t.Setenv("DATABASE_DSN", "file:farmacia.db")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("LOG_ENABLED", "false")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:farmacia.db", cfg.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.False(t, cfg.LogEnabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_LogFormatFollowsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)

	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_FORMAT", "json")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(dir, "ausente.env"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Port)
	})

	t.Run("values from file", func(t *testing.T) {
		path := filepath.Join(dir, "valido.env")
		require.NoError(t, os.WriteFile(path, []byte("APP_PORT=:7070\nUPLOAD_MAX_BYTES=2048\n"), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Port)
		assert.Equal(t, int64(2048), cfg.UploadMaxBytes)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "quebrado.env")
		require.NoError(t, os.WriteFile(path, []byte("APP_PORT\n"), 0o600))

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:            "development",
			DatabaseDriver: "sqlite",
			DatabaseDSN:    "file::memory:",
			JWTSecret:      DefaultJWTSecret,
			JWTTTL:         time.Hour,
			UploadDriver:   "local",
			UploadDir:      "uploads",
			UploadMaxBytes: 1,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		cfg := valid()
		cfg.UploadDriver = "s3"
		assert.ErrorContains(t, cfg.Validate(), "S3_BUCKET")
	})

	t.Run("production with default secret", func(t *testing.T) {
		cfg := valid()
		cfg.Env = "production"
		assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	})

	t.Run("collects every problem", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseDSN = ""
		cfg.UploadMaxBytes = 0
		err := cfg.Validate()
		assert.ErrorContains(t, err, "DATABASE_DSN")
		assert.ErrorContains(t, err, "UPLOAD_MAX_BYTES")
	})
}
