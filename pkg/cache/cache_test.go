package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("typed round trip", func(t *testing.T) {
		mc := NewMemoryCache()
		defer mc.Close()

		require.NoError(t, mc.Set(ctx, "snap:AAPL", item{"AAPL", 190.5}, time.Minute))

		var got item
		require.NoError(t, mc.Get(ctx, "snap:AAPL", &got))
		assert.Equal(t, item{"AAPL", 190.5}, got)
	})

	t.Run("expiry", func(t *testing.T) {
		mc := NewMemoryCache()
		defer mc.Close()
		now := time.Now()
		mc.now = func() time.Time { return now }

		require.NoError(t, mc.Set(ctx, "k", 1, time.Second))
		now = now.Add(2 * time.Second)

		var v int
		assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		mc := NewMemoryCache(WithMemoryMaxSize(2))
		defer mc.Close()
		now := time.Now()
		mc.now = func() time.Time { now = now.Add(time.Millisecond); return now }

		require.NoError(t, mc.Set(ctx, "a", 1, 0))
		require.NoError(t, mc.Set(ctx, "b", 2, 0))
		var v int
		require.NoError(t, mc.Get(ctx, "a", &v)) // touch a
		require.NoError(t, mc.Set(ctx, "c", 3, 0))

		assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
		assert.NoError(t, mc.Get(ctx, "a", &v))
		assert.Equal(t, 2, mc.Len())
	})

	t.Run("delete by pattern", func(t *testing.T) {
		mc := NewMemoryCache()
		defer mc.Close()

		require.NoError(t, mc.Set(ctx, "snapshot:AAPL", 1, 0))
		require.NoError(t, mc.Set(ctx, "snapshot:MSFT", 1, 0))
		require.NoError(t, mc.Set(ctx, "board", 1, 0))
		require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("snapshot:")))

		assert.Equal(t, 1, mc.Len())
	})

	t.Run("lock", func(t *testing.T) {
		mc := NewMemoryCache()
		defer mc.Close()

		ok, err := mc.TryLock(ctx, "refresh", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, _ = mc.TryLock(ctx, "refresh", time.Minute)
		assert.False(t, ok)

		require.NoError(t, mc.Unlock(ctx, "refresh"))
		ok, _ = mc.TryLock(ctx, "refresh", time.Minute)
		assert.True(t, ok)
	})
}

func TestLayeredCache(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "k", item{"X", 1}, time.Minute))

	var got item
	require.NoError(t, remote.Get(ctx, "k", &got), "write-through reaches L2")

	// populate L2 only; layered must read through
	require.NoError(t, remote.Set(ctx, "only-remote", item{"Y", 2}, time.Minute))
	require.NoError(t, lc.Get(ctx, "only-remote", &got))
	assert.Equal(t, item{"Y", 2}, got)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.True(t, errors.Is(lc.Get(ctx, "k", &got), ErrCacheMiss))
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{"Z", 3}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, mc, "z", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, item{"Z", 3}, v)
	}
	assert.Equal(t, 1, calls)

	_, err := GetOrLoad(ctx, mc, "fail", time.Minute, func(context.Context) (item, error) {
		return item{}, errors.New("boom")
	})
	assert.Error(t, err)
}
