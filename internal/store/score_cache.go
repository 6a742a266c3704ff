package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	redis "github.com/redis/go-redis/v9"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

// ScoreCache keeps recently computed scores in Redis with a fixed TTL.
type ScoreCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewScoreCache(client *redis.Client, prefix string, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ScoreCache) key(q domain.Query, user common.Address) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.prefix, q.Check, q.Reduce, strings.ToLower(user.Hex()))
}

// Get returns the cached score, if any.
func (c *ScoreCache) Get(ctx context.Context, q domain.Query, user common.Address) (int, bool, error) {
	key := c.key(q, user)
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached score %s: %w", key, err)
	}
	return score, true, nil
}

func (c *ScoreCache) Set(ctx context.Context, q domain.Query, user common.Address, score int) error {
	key := c.key(q, user)
	if err := c.client.Set(ctx, key, score, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}
