package cachestore

import (
	"context"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
)

// Store is a key/value cache shared by script runs.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (any, bool, error)

	Set(ctx context.Context, key string, val any) error
	Delete(ctx context.Context, key string) error

	// Close releases the store. Further calls return ErrClosed.
	Close() error
}

// MemoryConfig configures an in-process store.
type MemoryConfig struct {
	// TTL expires entries after they were last set. Zero keeps them forever.
	TTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

type memoryItem struct {
	val     any
	expires time.Time
}

// Memory is an in-process Store.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	items  map[string]memoryItem
	closed bool
}

// NewMemory creates an in-process store.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{
		ttl:   cfg.TTL,
		now:   cfg.Now,
		items: make(map[string]memoryItem),
	}
}

func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, gferrors.ErrClosed
	}
	it, ok := m.items[key]
	if !ok || m.expired(it) {
		return nil, false, nil
	}
	return it.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val any) error {
	if key == "" {
		return gferrors.NewValidationError("cachestore", "key", key, "cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return gferrors.ErrClosed
	}
	it := memoryItem{val: val}
	if m.ttl > 0 {
		it.expires = m.now().Add(m.ttl)
	}
	m.items[key] = it
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return gferrors.ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Len returns the number of live entries and drops expired ones.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, it := range m.items {
		if m.expired(it) {
			delete(m.items, k)
		}
	}
	return len(m.items)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = nil
	return nil
}

func (m *Memory) expired(it memoryItem) bool {
	return !it.expires.IsZero() && !m.now().Before(it.expires)
}
