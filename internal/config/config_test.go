package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Houeta/homecare-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `env: local
postgres:
  host: testHost
  user: admin
  password: adminpass
  db_name: testName
http:
  port: "9999"
auth:
  secret: test-secret
rabbitmq:
  host: broker
  user: guest
  password: guest
`

func Test_MustLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "testHost", cfg.Postgres.Host)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "admin", cfg.Postgres.User)
	assert.Equal(t, "adminpass", cfg.Postgres.Password)
	assert.Equal(t, "testName", cfg.Postgres.Dbname)
	assert.Equal(t, "9999", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "test-secret", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxSizeBytes)
	assert.Equal(t, "broker", cfg.Rabbit.Host)
	assert.Equal(t, "5672", cfg.Rabbit.Port)
}

func TestMustLoad_EmptyPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	assert.PanicsWithValue(t, "config path is empty", func() {
		config.MustLoad()
	})
}

func TestMustLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	assert.Panics(t, func() {
		config.MustLoad()
	})
}
