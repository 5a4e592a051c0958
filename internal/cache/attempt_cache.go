package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tastetrail/internal/model"
)

// AttemptCache tracks follow-up escalation per session question. Entries
// expire on their own; an abandoned session leaves nothing to clean up.
type AttemptCache interface {
	Get(ctx context.Context, sessionID, questionKey string) (*model.AttemptState, error)
	Set(ctx context.Context, sessionID, questionKey string, state *model.AttemptState) error
	Clear(ctx context.Context, sessionID, questionKey string) error
}

type attemptCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAttemptCache creates a new attempt cache
func NewAttemptCache(client *redis.Client) AttemptCache {
	return &attemptCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *attemptCache) key(sessionID, questionKey string) string {
	return fmt.Sprintf("session:%s:attempt:%s", sessionID, questionKey)
}

func (c *attemptCache) Get(ctx context.Context, sessionID, questionKey string) (*model.AttemptState, error) {
	data, err := c.client.Get(ctx, c.key(sessionID, questionKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state model.AttemptState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *attemptCache) Set(ctx context.Context, sessionID, questionKey string, state *model.AttemptState) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID, questionKey), data, c.ttl).Err()
}

func (c *attemptCache) Clear(ctx context.Context, sessionID, questionKey string) error {
	return c.client.Del(ctx, c.key(sessionID, questionKey)).Err()
}
