// Package peers keeps the population of current scores used for peer
// comparison on the dashboard.
package peers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/adaptest/internal/store"
)

// Index records each learner's current score and lists everyone else's.
type Index interface {
	Record(ctx context.Context, userID string, score int) error
	Scores(ctx context.Context, excludeUserID string) ([]int, error)
}

// StoreIndex reads peer scores from persisted analytics snapshots. The
// snapshot row is the record, so Record is a no-op.
type StoreIndex struct {
	snapshots *store.SnapshotRepo
}

// NewStoreIndex creates an Index backed by the snapshot table.
func NewStoreIndex(snapshots *store.SnapshotRepo) *StoreIndex {
	return &StoreIndex{snapshots: snapshots}
}

func (i *StoreIndex) Record(context.Context, string, int) error { return nil }

func (i *StoreIndex) Scores(ctx context.Context, excludeUserID string) ([]int, error) {
	return i.snapshots.PeerScores(ctx, excludeUserID)
}

// DefaultKey is the sorted set holding current scores.
const DefaultKey = "adaptest:peer-scores"

// RedisIndex keeps current scores in a Redis sorted set so several API
// instances share one population.
type RedisIndex struct {
	client *redis.Client
	key    string
}

// NewRedisIndex wraps an existing client.
func NewRedisIndex(client *redis.Client, key string) *RedisIndex {
	if key == "" {
		key = DefaultKey
	}
	return &RedisIndex{client: client, key: key}
}

func (i *RedisIndex) Record(ctx context.Context, userID string, score int) error {
	if err := i.client.ZAdd(ctx, i.key, redis.Z{Score: float64(score), Member: userID}).Err(); err != nil {
		return fmt.Errorf("record peer score: %w", err)
	}
	return nil
}

func (i *RedisIndex) Scores(ctx context.Context, excludeUserID string) ([]int, error) {
	members, err := i.client.ZRangeWithScores(ctx, i.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list peer scores: %w", err)
	}
	out := make([]int, 0, len(members))
	for _, m := range members {
		if id, _ := m.Member.(string); id == excludeUserID {
			continue
		}
		out = append(out, int(m.Score))
	}
	return out, nil
}

// Close releases the Redis connection pool.
func (i *RedisIndex) Close() error {
	return i.client.Close()
}

// Open returns a RedisIndex for redisURL, or fallback when the URL is
// empty. The connection is checked with PING before returning.
func Open(ctx context.Context, redisURL string, fallback Index) (Index, error) {
	if redisURL == "" {
		return fallback, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisIndex(client, DefaultKey), nil
}
