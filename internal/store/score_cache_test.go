package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

var user = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func newCache(t *testing.T, ttl time.Duration) (*ScoreCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewScoreCache(client, "score", ttl), mr
}

func TestScoreCacheRoundTrip(t *testing.T) {
	cache, mr := newCache(t, time.Minute)
	ctx := context.Background()
	q := domain.QueryFor(domain.CheckReferral)

	_, ok, err := cache.Get(ctx, q, user)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, q, user, 3))
	got, ok, err := cache.Get(ctx, q, user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, got)

	key := "score:referral:count:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// Queries with another reduction do not share entries.
	_, ok, err = cache.Get(ctx, domain.LegacyQuery, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScoreCacheExpires(t *testing.T) {
	cache, mr := newCache(t, 10*time.Second)
	ctx := context.Background()
	q := domain.QueryFor(domain.CheckSubscription)

	require.NoError(t, cache.Set(ctx, q, user, 1))
	mr.FastForward(11 * time.Second)

	_, ok, err := cache.Get(ctx, q, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScoreCacheErrors(t *testing.T) {
	cache, mr := newCache(t, time.Minute)
	ctx := context.Background()
	q := domain.QueryFor(domain.CheckReferral)

	mr.Set("score:referral:count:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "not-a-number")
	_, _, err := cache.Get(ctx, q, user)
	assert.Error(t, err)

	mr.Close()
	_, _, err = cache.Get(ctx, q, user)
	assert.Error(t, err)
	assert.Error(t, cache.Set(ctx, q, user, 1))
}
