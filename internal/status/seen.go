package status

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenSet remembers which inbound items were already handled so a restart
// does not answer the same mention twice.
type SeenSet interface {
	// MarkSeen claims id and reports whether it was new.
	MarkSeen(ctx context.Context, id string) (bool, error)
	// Forget releases a claim so the item is picked up again next cycle.
	Forget(ctx context.Context, id string) error
}

type seenStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSeenSet struct {
	client seenStore
	prefix string
	ttl    time.Duration
}

func NewRedisSeenSet(client seenStore, prefix string, ttl time.Duration) SeenSet {
	return &redisSeenSet{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisSeenSet) MarkSeen(ctx context.Context, id string) (bool, error) {
	fresh, err := s.client.SetNX(ctx, s.key(id), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark seen %s: %w", id, err)
	}
	return fresh, nil
}

func (s *redisSeenSet) Forget(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("forget %s: %w", id, err)
	}
	return nil
}

func (s *redisSeenSet) key(id string) string {
	return s.prefix + ":" + id
}
