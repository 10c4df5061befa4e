package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

// MarkInstalled flips the demo owning publication to installed. The document
// key is watched so a concurrent upsert is never overwritten, and a demo that
// is already installed is returned untouched with transitioned=false.
func (s *Store) MarkInstalled(ctx context.Context, publication string, now time.Time) (*domain.DemoConfig, bool, error) {
	id, err := s.client.Get(ctx, PublicationKey(publication)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, store.ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read publication index: %w", err)
	}

	key := DemoKey(id)
	var (
		result       *domain.DemoConfig
		transitioned bool
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get demo: %w", err)
		}
		demo, err := decode(data)
		if err != nil {
			return err
		}

		transitioned = demo.MarkInstalled(now)
		result = demo
		if !transitioned {
			return nil
		}

		updated, err := encode(demo)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to mark demo installed: %w", err)
	}

	views, err := s.views(ctx, id)
	if err != nil {
		return nil, false, err
	}
	result.ViewCount = views
	return result, transitioned, nil
}
