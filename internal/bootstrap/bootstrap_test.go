package bootstrap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{"DB_HOST", "DB_USER", "DB_NAME", "SERVER_PORT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, `
database:
  host: db
  user: reviews
  dbname: reviews
ingest:
  link_delay: 500ms
`)
		cfg, err := bootstrap.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "db", cfg.Database.Host)
		assert.Equal(t, 8070, cfg.Server.Port)
	})

	t.Run("missing database", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9000\n")
		_, err := bootstrap.LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.host")
	})
}

func TestCreateLogger(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingConfig{Level: "debug"}}
	log, err := bootstrap.CreateLogger(cfg, "test")
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestSetupEventPublisher(t *testing.T) {
	log := logger.NewNop()

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{}
		assert.Nil(t, bootstrap.SetupEventPublisher(cfg, log))
	})

	t.Run("unreachable", func(t *testing.T) {
		cfg := &config.Config{Redis: config.RedisConfig{Enabled: true, Address: "127.0.0.1:1"}}
		assert.Nil(t, bootstrap.SetupEventPublisher(cfg, log))
	})

	t.Run("enabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{Redis: config.RedisConfig{Enabled: true, Address: mr.Addr()}}

		pub := bootstrap.SetupEventPublisher(cfg, log)
		require.NotNil(t, pub)
		assert.NoError(t, pub.Close())
	})
}
