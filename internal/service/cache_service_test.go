package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
)

func newRedisCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := repository.NewCacheRepository(client, zap.NewNop())
	return NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true), server
}

func TestCacheServiceRemember(t *testing.T) {
	cache, server := newRedisCache(t)
	loads := 0
	load := func() (models.InternshipStats, error) {
		loads++
		return models.InternshipStats{Total: 3, Active: 2, ByCompany: map[string]int{"Acme": 3}}, nil
	}

	first, hit, err := Remember(context.Background(), cache, CacheKeyInternshipStats, 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, server.Exists(repository.CacheKeyPrefix+CacheKeyInternshipStats))

	second, hit, err := Remember(context.Background(), cache, CacheKeyInternshipStats, 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, loads)
	assert.Equal(t, first.ByCompany, second.ByCompany)

	require.NoError(t, cache.Invalidate(context.Background(), "internships:*"))
	assert.False(t, server.Exists(repository.CacheKeyPrefix+CacheKeyInternshipStats))
}

func TestCacheServiceDisabled(t *testing.T) {
	cache := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, cache.Enabled())

	value, hit, err := Remember(context.Background(), cache, "k", 0, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, value)
}
