package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir 切到临时目录，避免读到仓库里的 .env
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := chdir(t)

	cfg, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "runs", cfg.Mongo.HistoryCollection)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Mongo.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
log:
  development: true
mongo:
  host: "localhost:27017"
  dbname: "docs"
redis:
  addr: "localhost:6379"
  db: 2
session:
  ttl: 30m
preload:
  file: apis.json
  watch: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.Mongo.Enabled())
	assert.Equal(t, "docs", cfg.Mongo.DBName)
	assert.Equal(t, "runs", cfg.Mongo.HistoryCollection)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, PreloadConfig{File: "apis.json", Watch: true}, cfg.Preload)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := chdir(t)
	t.Setenv("NIMBUS_ADDR", ":7000")
	t.Setenv("NIMBUS_REDIS_ADDR", "redis:6379")
	t.Setenv("NIMBUS_LOG_DEVELOPMENT", "true")

	cfg, err := LoadConfig(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Log.Development)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NIMBUS_PRELOAD_FILE=from-dotenv.json\n"), 0o644))
	t.Setenv("NIMBUS_PRELOAD_FILE", "") // registers cleanup of the variable godotenv sets
	require.NoError(t, os.Unsetenv("NIMBUS_PRELOAD_FILE"))

	cfg, err := LoadConfig(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.Preload.File)
}

func TestLoadConfig_BadBoolEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv("NIMBUS_PRELOAD_WATCH", "maybe")

	_, err := LoadConfig(filepath.Join(dir, "none.yaml"))
	assert.Error(t, err)
}
