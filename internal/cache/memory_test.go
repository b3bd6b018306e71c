package cache

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	s := NewMemoryStore(0, mock)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	mock.Add(time.Minute)

	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, clock.NewMock())

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_EmptyPayloadIsAHit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, clock.NewMock())

	require.NoError(t, s.Set(ctx, "k", []byte{}, time.Hour))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	s := NewMemoryStore(0, mock)

	require.NoError(t, s.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "long", []byte("b"), time.Hour))

	mock.Add(2 * time.Minute)

	assert.Equal(t, 1, s.PurgeExpired())
	assert.Equal(t, 1, s.Len())

	_, ok, _ := s.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStore_MaxEntriesEvictsSoonestExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, clock.NewMock())

	require.NoError(t, s.Set(ctx, "a", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte("b"), time.Hour))
	require.NoError(t, s.Set(ctx, "c", []byte("c"), time.Second))

	assert.Equal(t, 2, s.Len())

	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "b")
	assert.True(t, ok)
	_, ok, _ = s.Get(ctx, "c")
	assert.True(t, ok)
}
