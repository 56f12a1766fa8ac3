package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "catalog:all")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`[{"id":"p1"}]`)
	require.NoError(t, m.Set(ctx, "catalog:all", value, time.Minute))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "catalog:all")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"p1"}]`, string(got), "stored value is a copy")

	require.NoError(t, m.Delete(ctx, "catalog:all", "unknown"))
	_, ok, _ = m.Get(ctx, "catalog:all")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(61 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
