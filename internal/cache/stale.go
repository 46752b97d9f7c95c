package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const staleProjectionsKey = "eligibility:stale"

// StaleProjections is the set of users whose eligibility projection failed
// after their decision committed. The reconcile task drains it.
type StaleProjections struct {
	client redis.UniversalClient
}

func NewStaleProjections(client redis.UniversalClient) *StaleProjections {
	return &StaleProjections{client: client}
}

func (s *StaleProjections) MarkStale(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.SAdd(ctx, staleProjectionsKey, userID.String()).Err(); err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return nil
}

func (s *StaleProjections) ClearStale(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.SRem(ctx, staleProjectionsKey, userID.String()).Err(); err != nil {
		return fmt.Errorf("redis srem failed: %w", err)
	}
	return nil
}

// Members lists the stale users. Entries that are not valid ids are skipped.
func (s *StaleProjections) Members(ctx context.Context) ([]uuid.UUID, error) {
	raw, err := s.client.SMembers(ctx, staleProjectionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
