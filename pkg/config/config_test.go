package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Second, cfg.Engine.SweepInterval.D())
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.DrainInterval.D())
	assert.Equal(t, 4, cfg.Pool.Workers)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "scriptflow.yaml", `
engine:
  sweep_interval: 2s
pool:
  workers: 8
queue:
  requeue_on_saturation: true
cache:
  backend: redis
  ttl: 1m
  redis:
    addr: cache:6379
logging:
  level: debug
`},
		{"toml", "scriptflow.toml", `
[engine]
sweep_interval = "2s"

[pool]
workers = 8

[queue]
requeue_on_saturation = true

[cache]
backend = "redis"
ttl = "1m"

[cache.redis]
addr = "cache:6379"

[logging]
level = "debug"
`},
		{"json", "scriptflow.json", `{
  "engine": {"sweep_interval": "2s"},
  "pool": {"workers": 8},
  "queue": {"requeue_on_saturation": true},
  "cache": {"backend": "redis", "ttl": "1m", "redis": {"addr": "cache:6379"}},
  "logging": {"level": "debug"}
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, 2*time.Second, cfg.Engine.SweepInterval.D())
			assert.Equal(t, 8, cfg.Pool.Workers)
			assert.True(t, cfg.Queue.RequeueOnSaturation)
			assert.Equal(t, CacheRedis, cfg.Cache.Backend)
			assert.Equal(t, time.Minute, cfg.Cache.TTL.D())
			assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
			assert.Equal(t, "debug", cfg.Logging.Level)

			// Untouched sections keep their defaults.
			assert.Equal(t, "scriptflow:cache:", cfg.Cache.Redis.Prefix)
			assert.Equal(t, 1000, cfg.Render.MaxTemplates)
			assert.Equal(t, time.Second, cfg.Queue.MinIterationInterval.D())
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	for _, file := range []struct{ name, content string }{
		{"bad.yaml", "engine:\n  sweep_intervall: 1s\n"},
		{"bad.toml", "[engine]\nsweep_intervall = \"1s\"\n"},
		{"bad.json", `{"engine": {"sweep_intervall": "1s"}}`},
	} {
		_, err := Load(writeFile(t, dir, file.name, file.content))
		assert.Error(t, err, file.name)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "config.ini", "workers=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeFile(t, dir, "duration.yaml", "engine:\n  sweep_interval: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load(writeFile(t, dir, "trailing.json", `{} {}`))
	assert.Error(t, err)
}

func TestEmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sweep interval", func(c *Config) { c.Engine.SweepInterval = 0 }},
		{"zero parallelism", func(c *Config) { c.Engine.DiscoveryParallelism = 0 }},
		{"negative drain interval", func(c *Config) { c.Engine.DrainInterval = Duration(-time.Millisecond) }},
		{"zero workers", func(c *Config) { c.Pool.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.Pool.TaskTimeout = Duration(-time.Second) }},
		{"negative templates", func(c *Config) { c.Render.MaxTemplates = -1 }},
		{"bad timezone", func(c *Config) { c.Render.Timezone = "Mars/Olympus" }},
		{"bad backend", func(c *Config) { c.Cache.Backend = "disk" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"metrics without namespace", func(c *Config) { c.Metrics.Namespace = "" }},
		{"metrics namespace with dash", func(c *Config) { c.Metrics.Namespace = "lcd-sim" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, gferrors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestSweepCronReplacesInterval(t *testing.T) {
	cfg := Default()
	cfg.Engine.SweepInterval = 0
	cfg.Engine.SweepCron = "@every 2s"
	assert.NoError(t, cfg.Validate())
}

func TestTimezone(t *testing.T) {
	cfg := Default()
	cfg.Render.Timezone = "UTC"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1m30s ")))
	assert.Equal(t, 90*time.Second, d.D())

	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))

	require.NoError(t, d.UnmarshalText(nil))
	assert.Equal(t, time.Duration(0), d.D())

	assert.Error(t, d.UnmarshalText([]byte("ten")))
}
