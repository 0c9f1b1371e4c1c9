package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis spins up an in-memory Redis behind a registry.
func setupTestRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *CompetitorRegistry) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	registry := NewCompetitorRegistry(redis.NewClient(&redis.Options{Addr: s.Addr()}), ttl)
	registry.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return s, registry
}

func TestMarkSeen(t *testing.T) {
	ms, registry := setupTestRedis(t, 0)
	defer ms.Close()
	ctx := context.Background()

	isNew, err := registry.MarkSeen(ctx, "Acme EdTech")
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = registry.MarkSeen(ctx, " acme edtech ")
	require.NoError(t, err)
	assert.False(t, isNew)

	isNew, err = registry.MarkSeen(ctx, "BrightKids")
	require.NoError(t, err)
	assert.True(t, isNew)

	first, ok, err := registry.FirstSeen(ctx, "ACME EDTECH")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), first)

	_, ok, err = registry.FirstSeen(ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkSeenExpires(t *testing.T) {
	ms, registry := setupTestRedis(t, time.Hour)
	defer ms.Close()
	ctx := context.Background()

	isNew, err := registry.MarkSeen(ctx, "Acme EdTech")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, time.Hour, ms.TTL("competitor:acme edtech"))

	ms.FastForward(2 * time.Hour)

	isNew, err = registry.MarkSeen(ctx, "Acme EdTech")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestMarkSeenUnavailable(t *testing.T) {
	ms, registry := setupTestRedis(t, 0)
	ms.Close()

	_, err := registry.MarkSeen(context.Background(), "Acme EdTech")
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	ms, err := miniredis.Run()
	require.NoError(t, err)
	defer ms.Close()

	registry, err := InitRedis(context.Background(), ms.Addr(), 0)
	require.NoError(t, err)
	assert.NoError(t, registry.Close())

	ms.Close()
	_, err = InitRedis(context.Background(), ms.Addr(), 0)
	assert.Error(t, err)
}
