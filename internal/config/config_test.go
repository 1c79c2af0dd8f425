package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beatpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func key(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(b), 32)))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  read_limit: 1024
session:
  lock_ttl: 5s
inference:
  provider: workersai
  timeout: 45s
  temperature: 0.2
storage:
  driver: redis
  redis:
    addr: redis:6379
    lock: true
    ttl: 24h
`)
	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(1024), cfg.Server.ReadLimit)
	assert.Equal(t, 5*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, "workersai", cfg.Inference.Provider)
	assert.Equal(t, 45*time.Second, cfg.Inference.Timeout)
	assert.InDelta(t, 0.2, cfg.Inference.Temperature, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Redis.TTL)
	assert.True(t, cfg.Storage.Redis.Lock)

	// Untouched keys keep their defaults.
	assert.Equal(t, 300, cfg.Inference.MaxTokens)
	assert.Equal(t, "beatpilot:session:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 4096, cfg.Session.MaxInputSize)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9000\"\n")
	cfg, err := load(path, envOf(map[string]string{
		"BEATPILOT_ADDR":           ":7000",
		"BEATPILOT_MAX_INPUT_SIZE": "128",
		"CLOUDFLARE_ACCOUNT_ID":    "acct",
		"CLOUDFLARE_API_TOKEN":     "token",
		"BEATPILOT_FALLBACK_KEYS":  key('a') + "," + key('b'),
		"GEMINI_API_KEY":           "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 128, cfg.Session.MaxInputSize)
	assert.Equal(t, "acct", cfg.Inference.AccountID)
	assert.Equal(t, "token", cfg.Inference.APIToken)
	assert.Equal(t, []string{key('a'), key('b')}, cfg.Storage.FallbackKeys)
	assert.Empty(t, cfg.Inference.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(writeFile(t, "server: [oops"), noEnv)
	assert.ErrorContains(t, err, "failed to parse")

	_, err = load(writeFile(t, "server:\n  adress: x\n"), noEnv)
	assert.ErrorContains(t, err, "invalid config")

	_, err = load(writeFile(t, "session:\n  lock_ttl: soon\n"), noEnv)
	assert.ErrorContains(t, err, "invalid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "s3" }, "storage.driver"},
		{"unknown provider", func(c *Config) { c.Inference.Provider = "openai" }, "inference.provider"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"lock without redis", func(c *Config) { c.Storage.Redis.Lock = true }, "requires the redis driver"},
		{"short key", func(c *Config) { c.Storage.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "32 bytes"},
		{"not base64", func(c *Config) { c.Storage.EncryptionKey = "%%%" }, "not valid base64"},
		{"orphan fallback", func(c *Config) { c.Storage.FallbackKeys = []string{key('a')} }, "requires storage.encryption_key"},
		{"negative timeout", func(c *Config) { c.Inference.Timeout = -time.Second }, "inference.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestStorageKeys(t *testing.T) {
	s := StorageConfig{EncryptionKey: key('k'), FallbackKeys: []string{key('o')}}
	active, fallback, err := s.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte('o'), fallback[0][0])

	active, fallback, err = StorageConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)
}
