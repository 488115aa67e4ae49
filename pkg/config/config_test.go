package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/indexes/", cfg.Index.RootPath)
	assert.Equal(t, "redis", cfg.Cursor.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cursor.TTL)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
index:
  rootPath: /srv/indexes/
  batchSize: 50
cursor:
  backend: local
  ttl: 90s
search:
  defaultLimit: 20
  maxResults: 200
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("FTS_REDIS_ADDR", "cache:6380")
	t.Setenv("FTS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/indexes/", cfg.Index.RootPath)
	assert.Equal(t, 50, cfg.Index.BatchSize)
	assert.Equal(t, "local", cfg.Cursor.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cursor.TTL)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_RejectsUnknownCursorBackend(t *testing.T) {
	t.Setenv("FTS_CURSOR_BACKEND", "memcached")

	_, err := Load("")
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "cursor.backend")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_DevelopmentConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "index-commands", cfg.Kafka.Topics.IndexCommands)
	assert.Equal(t, 200.0, cfg.RateLimit.RequestsPerSecond)
}

func TestLoad_CORSOriginsFromEnv(t *testing.T) {
	t.Setenv("FTS_CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}
