package cachestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/vnykmshr/scriptflow/internal/testutil"
	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
)

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(MemoryConfig{})
	defer m.Close()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "fuel", 0.42))
	v, ok, err := m.Get(ctx, "fuel")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.42, v)

	require.NoError(t, m.Set(ctx, "fuel", "empty"))
	v, _, _ = m.Get(ctx, "fuel")
	assert.Equal(t, "empty", v)

	require.NoError(t, m.Delete(ctx, "fuel"))
	_, ok, _ = m.Get(ctx, "fuel")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryRejectsEmptyKey(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	err := m.Set(context.Background(), "", 1)
	assert.True(t, gferrors.IsValidationError(err))
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	clock := tu.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewMemory(MemoryConfig{TTL: time.Minute, Now: clock.Now})

	require.NoError(t, m.Set(ctx, "a", 1))
	clock.Advance(59 * time.Second)
	_, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(MemoryConfig{})
	require.NoError(t, m.Close())

	_, _, err := m.Get(ctx, "a")
	assert.True(t, errors.Is(err, gferrors.ErrClosed))
	assert.True(t, errors.Is(m.Set(ctx, "a", 1), gferrors.ErrClosed))
	assert.True(t, errors.Is(m.Delete(ctx, "a"), gferrors.ErrClosed))
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(MemoryConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "shared", j)
				_, _, _ = m.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	_, ok, err := m.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
}
