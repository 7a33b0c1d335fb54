package main

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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Platforms.PolyMarket.GammaURL)
	assert.Equal(t, "https://clob.polymarket.com", cfg.Platforms.PolyMarket.ClobURL)
	assert.Equal(t, cacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL.Duration())
	assert.Equal(t, 20, cfg.Enrich.Concurrency)
	assert.Equal(t, 5, cfg.Enrich.OutcomesPerEvent)
	assert.Equal(t, "1d", cfg.Enrich.Interval)
	assert.Equal(t, 60, cfg.Enrich.Fidelity)
	assert.Equal(t, 30, cfg.Recommend.Pool)
	assert.Equal(t, 72*time.Hour, cfg.Recommend.MinTimeToClose.Duration())
}

func TestReadConfig_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  encoding: json
platforms:
  polymarket:
    gamma_url: http://gamma.local
    timeout: 3s
    retries: 0
    expand_binary: true
cache:
  backend: redis
  ttl: 2m
  redis_url: redis://localhost:6379/0
enrich:
  concurrency: 8
recommend:
  pool: 50
  min_time_to_close: 48h
`)

	cfg, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, "http://gamma.local", cfg.Platforms.PolyMarket.GammaURL)
	assert.Equal(t, "https://clob.polymarket.com", cfg.Platforms.PolyMarket.ClobURL, "unset keys keep defaults")
	assert.Equal(t, 3*time.Second, cfg.Platforms.PolyMarket.Timeout.Duration())
	assert.Zero(t, cfg.Platforms.PolyMarket.Retries)
	assert.True(t, cfg.Platforms.PolyMarket.ExpandBinary)
	assert.Equal(t, cacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Duration())
	assert.Equal(t, 8, cfg.Enrich.Concurrency)
	assert.Equal(t, 5, cfg.Enrich.OutcomesPerEvent)
	assert.Equal(t, 50, cfg.Recommend.Pool)
	assert.Equal(t, 48*time.Hour, cfg.Recommend.MinTimeToClose.Duration())
}

func TestReadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "platforms:\n  polymarket:\n    gamma_url: http://from-file\n")
	t.Setenv("POLYMARKET_GAMMA_URL", "http://from-env")
	t.Setenv("POLYMARKET_LOG_LEVEL", "error")

	cfg, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Platforms.PolyMarket.GammaURL)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestReadConfig_Errors(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "couldn't read file")

	_, err = readConfig(writeConfig(t, "cache: [unclosed"))
	assert.ErrorContains(t, err, "couldn't parse config")

	_, err = readConfig(writeConfig(t, "cache:\n  ttl: soon\n"))
	assert.ErrorContains(t, err, "couldn't parse config")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*config) {}},
		{
			name:    "missing gamma url",
			mutate:  func(c *config) { c.Platforms.PolyMarket.GammaURL = "" },
			wantErr: "platforms.polymarket.gamma_url is required",
		},
		{
			name:    "missing clob url",
			mutate:  func(c *config) { c.Platforms.PolyMarket.ClobURL = "" },
			wantErr: "platforms.polymarket.clob_url is required",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *config) { c.Platforms.PolyMarket.Timeout = 0 },
			wantErr: "platforms.polymarket.timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(c *config) { c.Platforms.PolyMarket.Retries = -1 },
			wantErr: "platforms.polymarket.retries",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config) { c.Cache.Backend = "disk" },
			wantErr: "cache.backend",
		},
		{
			name:    "redis without url",
			mutate:  func(c *config) { c.Cache.Backend = cacheRedis },
			wantErr: "cache.redis_url is required",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *config) { c.Enrich.Concurrency = 0 },
			wantErr: "enrich.concurrency",
		},
		{
			name:    "zero outcomes per event",
			mutate:  func(c *config) { c.Enrich.OutcomesPerEvent = 0 },
			wantErr: "enrich.outcomes_per_event",
		},
		{
			name:    "empty interval",
			mutate:  func(c *config) { c.Enrich.Interval = "" },
			wantErr: "enrich.interval",
		},
		{
			name:    "zero fidelity",
			mutate:  func(c *config) { c.Enrich.Fidelity = 0 },
			wantErr: "enrich.fidelity",
		},
		{
			name:    "zero pool",
			mutate:  func(c *config) { c.Recommend.Pool = 0 },
			wantErr: "recommend.pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReadConfig_ExampleFile(t *testing.T) {
	cfg, err := readConfig(filepath.Join("..", "..", "configs", "polymarket", "config.yaml"))
	require.NoError(t, err)

	want := defaultConfig()
	want.Cache.RedisURL = "redis://localhost:6379/0"
	assert.Equal(t, want, cfg)
}
