package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campusq/internal/shared/constants"
)

// UsageStore is the consumed-token ledger. One generic store serves
// every token type; entries expire together with the token they record
// so the ledger never outgrows the set of live tokens.
type UsageStore interface {
	MarkUsed(ctx context.Context, digest string, ttl time.Duration) error
	IsUsed(ctx context.Context, digest string) (bool, error)
}

type redisUsageStore struct {
	client *redis.Client
}

// NewRedisUsageStore creates a Redis-backed consumed-token ledger
func NewRedisUsageStore(client *redis.Client) UsageStore {
	return &redisUsageStore{client: client}
}

func (s *redisUsageStore) MarkUsed(ctx context.Context, digest string, ttl time.Duration) error {
	if ttl < constants.TTLConsumedTokenFloor {
		ttl = constants.TTLConsumedTokenFloor
	}

	err := s.client.Set(ctx, constants.ConsumedTokenKey(digest), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to record consumed token: %w", err)
	}
	return nil
}

func (s *redisUsageStore) IsUsed(ctx context.Context, digest string) (bool, error) {
	n, err := s.client.Exists(ctx, constants.ConsumedTokenKey(digest)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check consumed token: %w", err)
	}
	return n > 0, nil
}
