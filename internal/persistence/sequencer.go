package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TicketSequencer allocates monotonic yearly ticket sequence numbers.
type TicketSequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

// SeedCounter reports how many ticket numbers already exist for a year.
// Backed by a prefix count against the store; used to seed a fresh counter.
type SeedCounter interface {
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type redisSequencer struct {
	client *redis.Client
	seed   SeedCounter
	prefix func(year int) string
}

// NewRedisSequencer builds a Redis INCR based sequencer. When the yearly key
// is absent it is seeded from the store's prefix count so restarts with a
// flushed Redis never reissue numbers.
func NewRedisSequencer(client *redis.Client, seed SeedCounter, prefix func(year int) string) TicketSequencer {
	return &redisSequencer{client: client, seed: seed, prefix: prefix}
}

func (s *redisSequencer) key(year int) string {
	return fmt.Sprintf("wac:seq:%04d", year)
}

func (s *redisSequencer) Next(ctx context.Context, year int) (int64, error) {
	key := s.key(year)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequencer exists: %w", err)
	}
	if exists == 0 && s.seed != nil {
		count, err := s.seed.CountByPrefix(ctx, s.prefix(year))
		if err != nil {
			return 0, fmt.Errorf("sequencer seed: %w", err)
		}
		// SETNX: a concurrent seeder may have won, which is fine.
		if err := s.client.SetNX(ctx, key, count, 0).Err(); err != nil {
			return 0, fmt.Errorf("sequencer setnx: %w", err)
		}
	}

	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequencer incr: %w", err)
	}
	return seq, nil
}
