package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tastetrail/internal/model"
)

const (
	patternsKey = "patterns:latest"
	summaryKey  = "insights:summary"
)

// PatternCache keeps the latest detected pattern set and the taste summary
// so list endpoints skip mongo between detection runs.
type PatternCache interface {
	GetPatterns(ctx context.Context) ([]*model.Pattern, error)
	SetPatterns(ctx context.Context, patterns []*model.Pattern) error
	GetSummary(ctx context.Context) (*model.TasteSummary, error)
	SetSummary(ctx context.Context, summary *model.TasteSummary) error
	Invalidate(ctx context.Context) error
}

type patternCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPatternCache creates a new pattern cache
func NewPatternCache(client *redis.Client) PatternCache {
	return &patternCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *patternCache) GetPatterns(ctx context.Context) ([]*model.Pattern, error) {
	data, err := c.client.Get(ctx, patternsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []*model.Pattern
	if err := json.Unmarshal([]byte(data), &patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (c *patternCache) SetPatterns(ctx context.Context, patterns []*model.Pattern) error {
	data, err := json.Marshal(patterns)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, patternsKey, data, c.ttl).Err()
}

func (c *patternCache) GetSummary(ctx context.Context) (*model.TasteSummary, error) {
	data, err := c.client.Get(ctx, summaryKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary model.TasteSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *patternCache) SetSummary(ctx context.Context, summary *model.TasteSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, data, c.ttl).Err()
}

func (c *patternCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, patternsKey, summaryKey).Err()
}
