package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"campusq/internal/shared/constants"
)

// NotifiedStore remembers which tickets already received the
// almost-your-turn notification per station, so a ticket is notified
// at most once per stay in the front window.
type NotifiedStore interface {
	Members(ctx context.Context, stationID uuid.UUID) (map[string]bool, error)
	Replace(ctx context.Context, stationID uuid.UUID, ticketIDs []string) error
}

type redisNotifiedStore struct {
	client *redis.Client
}

func NewRedisNotifiedStore(client *redis.Client) NotifiedStore {
	return &redisNotifiedStore{client: client}
}

func (s *redisNotifiedStore) Members(ctx context.Context, stationID uuid.UUID) (map[string]bool, error) {
	key := constants.NotifiedSetKey(stationID.String())
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notified set: %w", err)
	}

	out := make(map[string]bool, len(members))
	for _, m := range members {
		out[m] = true
	}
	return out, nil
}

// Replace overwrites the notified set with the current front window.
// The overwrite is unconditional: tickets that left the window fall
// out so they can be re-notified if they somehow re-enter.
func (s *redisNotifiedStore) Replace(ctx context.Context, stationID uuid.UUID, ticketIDs []string) error {
	key := constants.NotifiedSetKey(stationID.String())

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(ticketIDs) > 0 {
		members := make([]interface{}, len(ticketIDs))
		for i, id := range ticketIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, constants.TTLNotifiedSet)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace notified set: %w", err)
	}
	return nil
}
