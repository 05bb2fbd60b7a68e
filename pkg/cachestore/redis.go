package cachestore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
)

// RedisConfig configures a Redis backed store.
type RedisConfig struct {
	// Redis client shared with the rest of the process.
	Redis redis.UniversalClient

	// Prefix is prepended to every key. Defaults to "scriptflow:cache:".
	Prefix string

	// TTL expires keys. Zero keeps them until deleted.
	TTL time.Duration

	// Timeout bounds each Redis call. Defaults to 500ms.
	Timeout time.Duration

	// CloseClient closes Redis when the store is closed.
	CloseClient bool
}

// Redis is a Store backed by Redis.
type Redis struct {
	cfg    RedisConfig
	closed atomic.Bool
}

// NewRedis creates a Redis backed store.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Redis == nil {
		return nil, gferrors.NewValidationError("cachestore", "Redis", nil, "redis client is required")
	}
	if cfg.TTL < 0 {
		return nil, gferrors.NewValidationError("cachestore", "TTL", cfg.TTL, "must not be negative")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "scriptflow:cache:"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &Redis{cfg: cfg}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (any, bool, error) {
	if r.closed.Load() {
		return nil, false, gferrors.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	b, err := r.cfg.Redis.Get(ctx, r.cfg.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, gferrors.NewOperationError("cachestore", "get", err).WithContext("key " + key)
	}

	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, false, gferrors.NewOperationError("cachestore", "decode", err).WithContext("key " + key)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val any) error {
	if key == "" {
		return gferrors.NewValidationError("cachestore", "key", key, "cannot be empty")
	}
	if r.closed.Load() {
		return gferrors.ErrClosed
	}
	b, err := msgpack.Marshal(val)
	if err != nil {
		return gferrors.NewOperationError("cachestore", "encode", err).WithContext("key " + key)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	if err := r.cfg.Redis.Set(ctx, r.cfg.Prefix+key, b, r.cfg.TTL).Err(); err != nil {
		return gferrors.NewOperationError("cachestore", "set", err).WithContext("key " + key)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return gferrors.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	if err := r.cfg.Redis.Del(ctx, r.cfg.Prefix+key).Err(); err != nil {
		return gferrors.NewOperationError("cachestore", "delete", err).WithContext("key " + key)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.cfg.CloseClient {
		return r.cfg.Redis.Close()
	}
	return nil
}
