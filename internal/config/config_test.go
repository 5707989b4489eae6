// ABOUTME: Tests for configuration loading, env expansion, and validation
// ABOUTME: Covers YAML parsing, fallbacks, duration handling, and required fields

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":9000"
  frontend_url: "http://localhost:5173"
database:
  path: "/tmp/test.db"
livekit:
  api_key: "lk_key"
  api_secret: "lk_secret"
  url: "wss://example.livekit.cloud"
ai:
  mastra_url: "http://localhost:4111"
  mastra_api_key: "mastra_key"
sessions:
  timeout: "45m"
  cleanup_interval: "10m"
rate_limit:
  requests_per_second: 5
  burst: 10
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "http://localhost:5173", cfg.Server.FrontendURL)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "lk_key", cfg.LiveKit.APIKey)
	assert.Equal(t, 45*time.Minute, cfg.Sessions.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.CleanupInterval)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("TEST_LK_SECRET", "expanded_secret")

	path := writeConfig(t, `
livekit:
  api_key: "key"
  api_secret: "${TEST_LK_SECRET}"
  url: "wss://lk.example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded_secret", cfg.LiveKit.APISecret)
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("LIVEKIT_API_KEY", "env_key")
	t.Setenv("LIVEKIT_API_SECRET", "env_secret")
	t.Setenv("LIVEKIT_URL", "wss://env.livekit.cloud")
	t.Setenv("MASTRA_API_KEY", "env_mastra")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.Server.HTTPAddr)
	assert.Equal(t, "env_key", cfg.LiveKit.APIKey)
	assert.Equal(t, "env_mastra", cfg.AI.MastraAPIKey)
}

func TestLoadMem0URLAlias(t *testing.T) {
	t.Setenv("LIVEKIT_API_KEY", "env_key")
	t.Setenv("LIVEKIT_API_SECRET", "env_secret")
	t.Setenv("LIVEKIT_URL", "wss://env.livekit.cloud")
	t.Setenv("MEM0_DATABASE_URL", "https://legacy.mem0.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.mem0.example.com", cfg.AI.Mem0URL)

	// The canonical variable wins when both are set
	t.Setenv("MEM0_API_URL", "https://api.mem0.example.com")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.mem0.example.com", cfg.AI.Mem0URL)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
livekit:
  api_key: "key"
  api_secret: "secret"
  url: "wss://lk.example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultSessionTimeout, cfg.Sessions.Timeout)
	assert.Equal(t, DefaultCleanupInterval, cfg.Sessions.CleanupInterval)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, DefaultRateBurst, cfg.RateLimit.Burst)
}

func TestLoadMissingLiveKit(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "livekit.api_key")
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
livekit:
  api_key: "key"
  api_secret: "secret"
  url: "wss://lk.example.com"
sessions:
  timeout: "not-a-duration"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessions.timeout")
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("LIVEKIT_API_KEY", "k")
	t.Setenv("LIVEKIT_API_SECRET", "s")
	t.Setenv("LIVEKIT_URL", "wss://lk")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.LiveKit.APIKey)
}
