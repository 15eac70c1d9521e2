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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, time.Hour, cfg.UpdateInterval)
	assert.False(t, cfg.Feed.Enabled)
	assert.Equal(t, 10, cfg.Canonical.MaxDecodePasses)
	assert.Equal(t, "urlguard.verdicts", cfg.NATS.Subject)
	assert.False(t, cfg.HasSource())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("URLGUARD_HTTP_ADDR", ":18080")
	t.Setenv("URLGUARD_UPDATE_INTERVAL", "30m")
	t.Setenv("URLGUARD_FEED_ENABLED", "true")
	t.Setenv("URLGUARD_CANONICAL_STRICT_IPV6", "true")
	t.Setenv("URLGUARD_ALLOWLIST", "*.corp.example.com/**,intranet.example.com/**")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.UpdateInterval)
	assert.True(t, cfg.Feed.Enabled)
	assert.True(t, cfg.HasSource())
	assert.True(t, cfg.Canonical.Options().StrictIPv6)
	assert.Equal(t, []string{"*.corp.example.com/**", "intranet.example.com/**"}, cfg.Allowlist)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urlguard.yaml")
	data := []byte(`
grpc_addr: ":19090"
blocklist:
  file: /var/lib/urlguard/blocklist.csv
  watch: false
nats:
  url: nats://127.0.0.1:4222
log:
  level: debug
  format: console
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":19090", cfg.GRPCAddr)
	assert.Equal(t, "/var/lib/urlguard/blocklist.csv", cfg.Blocklist.File)
	assert.False(t, cfg.Blocklist.Watch)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.HasSource())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"URLGUARD_UPDATE_INTERVAL":             "10s",
		"URLGUARD_CANONICAL_MAX_DECODE_PASSES": "0",
		"URLGUARD_ALLOWLIST":                   "[unclosed",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate_TooLargeInterval(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.UpdateInterval = 72 * time.Hour
	assert.Error(t, cfg.Validate())
}
