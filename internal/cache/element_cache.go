package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"tastetrail/internal/model"
)

const elementsKey = "taste:elements"

// ElementCache handles Redis ZSET operations for the element leaderboard.
// Detection runs rebuild it from scratch; accepted reflections bump it live
// in between.
type ElementCache interface {
	Rebuild(ctx context.Context, counts map[string]int) error
	IncrElement(ctx context.Context, element string, delta int) error
	TopElements(ctx context.Context, limit int) ([]model.ElementStat, error)
}

type elementCache struct {
	client *redis.Client
}

// NewElementCache creates a new element leaderboard cache
func NewElementCache(client *redis.Client) ElementCache {
	return &elementCache{
		client: client,
	}
}

func (c *elementCache) Rebuild(ctx context.Context, counts map[string]int) error {
	if err := c.client.Del(ctx, elementsKey).Err(); err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(counts))
	for element, n := range counts {
		members = append(members, redis.Z{
			Score:  float64(n),
			Member: element,
		})
	}
	return c.client.ZAdd(ctx, elementsKey, members...).Err()
}

func (c *elementCache) IncrElement(ctx context.Context, element string, delta int) error {
	return c.client.ZIncrBy(ctx, elementsKey, float64(delta), element).Err()
}

func (c *elementCache) TopElements(ctx context.Context, limit int) ([]model.ElementStat, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, elementsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	stats := make([]model.ElementStat, len(results))
	for i, z := range results {
		stats[i] = model.ElementStat{
			Element:  z.Member.(string),
			Mentions: int(z.Score),
		}
	}
	return stats, nil
}
