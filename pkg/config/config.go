package config

import (
	"errors"
	"time"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/common/validation"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
)

// Config is the full configuration document.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" toml:"engine" json:"engine"`
	Pool    PoolConfig    `yaml:"pool" toml:"pool" json:"pool"`
	Queue   QueueConfig   `yaml:"queue" toml:"queue" json:"queue"`
	Render  RenderConfig  `yaml:"render" toml:"render" json:"render"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache" json:"cache"`
	Logging logx.Config   `yaml:"logging" toml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// EngineConfig drives the periodic sweep.
type EngineConfig struct {
	// Name labels metrics and logs.
	Name string `yaml:"name" toml:"name" json:"name"`

	// SweepInterval is the time between sweeps.
	SweepInterval Duration `yaml:"sweep_interval" toml:"sweep_interval" json:"sweep_interval"`

	// SweepCron replaces SweepInterval with a cron expression when set.
	// Seconds and descriptors such as @every are accepted.
	SweepCron string `yaml:"sweep_cron" toml:"sweep_cron" json:"sweep_cron"`

	// DiscoveryParallelism bounds concurrent entity scans within a sweep.
	DiscoveryParallelism int `yaml:"discovery_parallelism" toml:"discovery_parallelism" json:"discovery_parallelism"`

	// DrainInterval is how often queued jobs are offered to idle workers
	// between sweeps. Zero leaves dispatch to the sweep alone.
	DrainInterval Duration `yaml:"drain_interval" toml:"drain_interval" json:"drain_interval"`
}

// PoolConfig sizes the render worker pool.
type PoolConfig struct {
	Workers     int      `yaml:"workers" toml:"workers" json:"workers"`
	TaskTimeout Duration `yaml:"task_timeout" toml:"task_timeout" json:"task_timeout"`
}

// QueueConfig tunes the execution queue.
type QueueConfig struct {
	RequeueOnSaturation   bool     `yaml:"requeue_on_saturation" toml:"requeue_on_saturation" json:"requeue_on_saturation"`
	MinIterationInterval  Duration `yaml:"min_iteration_interval" toml:"min_iteration_interval" json:"min_iteration_interval"`
	SaturationLogInterval Duration `yaml:"saturation_log_interval" toml:"saturation_log_interval" json:"saturation_log_interval"`
}

// RenderConfig tunes script rendering.
type RenderConfig struct {
	MaxTemplates int `yaml:"max_templates" toml:"max_templates" json:"max_templates"`

	// Timezone is an IANA name used by datetime without an offset. Empty means local time.
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`
}

// CacheConfig selects the store behind setcache and getcache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `yaml:"backend" toml:"backend" json:"backend"`
	TTL     Duration    `yaml:"ttl" toml:"ttl" json:"ttl"`
	Redis   RedisConfig `yaml:"redis" toml:"redis" json:"redis"`
}

// RedisConfig locates the Redis server for the redis cache backend.
type RedisConfig struct {
	Addr     string   `yaml:"addr" toml:"addr" json:"addr"`
	Password string   `yaml:"password" toml:"password" json:"password"`
	DB       int      `yaml:"db" toml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" toml:"prefix" json:"prefix"`
	Timeout  Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// MetricsConfig controls the Prometheus registry and its HTTP endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace" json:"namespace"`
	Address   string `yaml:"address" toml:"address" json:"address"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:                 "default",
			SweepInterval:        Duration(time.Second),
			DiscoveryParallelism: 4,
			DrainInterval:        Duration(50 * time.Millisecond),
		},
		Pool: PoolConfig{
			Workers: 4,
		},
		Queue: QueueConfig{
			MinIterationInterval:  Duration(time.Second),
			SaturationLogInterval: Duration(5 * time.Second),
		},
		Render: RenderConfig{
			MaxTemplates: 1000,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "scriptflow:cache:",
				Timeout: Duration(500 * time.Millisecond),
			},
		},
		Logging: logx.Config{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "scriptflow",
			Address:   ":9090",
		},
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Engine.SweepCron == "" {
		check(validation.ValidatePositiveDuration("config", "engine.sweep_interval", c.Engine.SweepInterval.D()))
	}
	check(validation.ValidatePositive("config", "engine.discovery_parallelism", c.Engine.DiscoveryParallelism))
	check(validation.ValidateNonNegativeDuration("config", "engine.drain_interval", c.Engine.DrainInterval.D()))

	check(validation.ValidatePositive("config", "pool.workers", c.Pool.Workers))
	check(validation.ValidateNonNegativeDuration("config", "pool.task_timeout", c.Pool.TaskTimeout.D()))

	check(validation.ValidateNonNegativeDuration("config", "queue.min_iteration_interval", c.Queue.MinIterationInterval.D()))
	check(validation.ValidateNonNegativeDuration("config", "queue.saturation_log_interval", c.Queue.SaturationLogInterval.D()))

	check(validation.ValidateNonNegative("config", "render.max_templates", c.Render.MaxTemplates))
	if c.Render.Timezone != "" {
		if _, err := time.LoadLocation(c.Render.Timezone); err != nil {
			check(gferrors.NewValidationError("config", "render.timezone", c.Render.Timezone, "unknown time zone").
				WithHint("use an IANA name such as Europe/Berlin"))
		}
	}

	check(validation.ValidateOneOf("config", "cache.backend", c.Cache.Backend, CacheMemory, CacheRedis))
	check(validation.ValidateNonNegativeDuration("config", "cache.ttl", c.Cache.TTL.D()))
	if c.Cache.Backend == CacheRedis {
		check(validation.ValidateNotEmpty("config", "cache.redis.addr", c.Cache.Redis.Addr))
	}

	check(validation.ValidateOneOf("config", "logging.level", c.Logging.Level, "trace", "debug", "info", "warn", "error"))
	check(validation.ValidateOneOf("config", "logging.format", c.Logging.Format, "console", "json"))

	if c.Metrics.Enabled {
		check(validation.ValidateNotEmpty("config", "metrics.namespace", c.Metrics.Namespace))
		check(metrics.Config{Namespace: c.Metrics.Namespace}.Validate())
	}
	return errors.Join(errs...)
}

// Location resolves Render.Timezone.
func (c *Config) Location() *time.Location {
	if c.Render.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Render.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
