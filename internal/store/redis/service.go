package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

// maxTxRetries bounds optimistic WATCH/MULTI retries before giving up with store.ErrConflict.
const maxTxRetries = 10

var _ store.DemoStore = (*Store)(nil)

// Store handles Redis operations for demo records
type Store struct {
	client *redis.Client
	newID  func() string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		newID:  uuid.NewString,
	}
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// watch runs fn inside an optimistic transaction on keys, retrying when
// another client touched a watched key first.
func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return store.ErrConflict
}

func decode(data []byte) (*domain.DemoConfig, error) {
	var demo domain.DemoConfig
	if err := json.Unmarshal(data, &demo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal demo: %w", err)
	}
	return &demo, nil
}

func encode(demo *domain.DemoConfig) ([]byte, error) {
	data, err := json.Marshal(demo)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal demo: %w", err)
	}
	return data, nil
}

func recencyScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// getIfOwned reads an index key and reports whether it points at id.
func getIfOwned(ctx context.Context, tx *redis.Tx, key, id string) (bool, error) {
	owner, err := tx.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read index %s: %w", key, err)
	}
	return owner == id, nil
}

// views reads the counter of id, missing counters read as zero.
func (s *Store) views(ctx context.Context, id string) (int64, error) {
	n, err := s.client.Get(ctx, ViewsKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read view counter: %w", err)
	}
	return n, nil
}
