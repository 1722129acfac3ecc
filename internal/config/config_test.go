package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFilesUsesDefaults(t *testing.T) {
	for _, key := range []string{"SCORETREE_BASE_URL", "SCORETREE_CONCURRENCY", "ATLAS_DSN", "REDIS_URL", "REST_PORT", "WS_PORT", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(6000), cfg.Discovery.MaxID)
	assert.Equal(t, int64(1_000_000), cfg.Discovery.MaxRange)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout())
}

func TestLoadMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoretree.json5")

	writeFile(t, path, `{
		// comments and trailing commas are fine in json5
		fetch: { concurrency: 4, rate_per_second: 2.5, },
		discovery: { min_id: 100, max_id: 200, teams: ["湖人"] },
	}`)
	writeFile(t, filepath.Join(dir, "scoretree.local.json5"), `{
		discovery: { max_id: 300, max_range: 500 },
		log: { level: "debug" },
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, 2.5, cfg.Fetch.RatePerSecond)
	assert.Equal(t, int64(100), cfg.Discovery.MinID)
	assert.Equal(t, int64(300), cfg.Discovery.MaxID)
	assert.Equal(t, int64(500), cfg.Discovery.MaxRange)
	assert.Equal(t, []string{"湖人"}, cfg.Discovery.Teams)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://games.mobileapi.hupu.com", cfg.Fetch.BaseURL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoretree.json5")
	writeFile(t, path, `{ fetch: `)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SCORETREE_BASE_URL", "http://localhost:9999")
	t.Setenv("SCORETREE_CONCURRENCY", "2")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json5"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.Fetch.BaseURL)
	assert.Equal(t, 2, cfg.Fetch.Concurrency)
	assert.Equal(t, "redis://cache:6379", cfg.Storage.RedisURL)
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, filepath.Join("conf", "scoretree.local.json5"), localPath(filepath.Join("conf", "scoretree.json5")))
	assert.Equal(t, "cfg.local", localPath("cfg"))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
