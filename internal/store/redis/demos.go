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

// Upsert creates or updates the demo for in.WebsiteURL in one optimistic
// transaction guarded by the url index key, so concurrent callers for the
// same url never produce two records.
func (s *Store) Upsert(ctx context.Context, in domain.DemoInput, now time.Time) (*domain.DemoConfig, bool, error) {
	urlKey := URLKey(in.WebsiteURL)

	var (
		result  *domain.DemoConfig
		created bool
	)

	txf := func(tx *redis.Tx) error {
		demo, err := s.lookupByURL(ctx, tx, urlKey)
		if err != nil {
			return err
		}

		created = demo == nil
		oldPub := ""
		if created {
			demo = domain.NewDemo(s.newID(), in, now)
		} else {
			oldPub = demo.Publication
			demo.Apply(in, now)
		}

		data, err := encode(demo)
		if err != nil {
			return err
		}

		dropOldPub := false
		if oldPub != "" && oldPub != demo.Publication {
			if dropOldPub, err = getIfOwned(ctx, tx, PublicationKey(oldPub), demo.ID); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, DemoKey(demo.ID), data, 0)
			if created {
				pipe.Set(ctx, urlKey, demo.ID, 0)
			}
			pipe.Set(ctx, PublicationKey(demo.Publication), demo.ID, 0)
			if dropOldPub {
				pipe.Del(ctx, PublicationKey(oldPub))
			}
			pipe.ZAdd(ctx, KeyRecent, redis.Z{Score: recencyScore(now), Member: demo.ID})
			return nil
		})
		if err != nil {
			return err
		}
		result = demo
		return nil
	}

	if err := s.watch(ctx, txf, urlKey); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to upsert demo: %w", err)
	}

	if !created {
		views, err := s.views(ctx, result.ID)
		if err != nil {
			return nil, false, err
		}
		result.ViewCount = views
	}
	return result, created, nil
}

// lookupByURL resolves the url index inside tx and, when it points at a
// document, adds that document to the watched keys. A dangling index entry
// reads as absent.
func (s *Store) lookupByURL(ctx context.Context, tx *redis.Tx, urlKey string) (*domain.DemoConfig, error) {
	id, err := tx.Get(ctx, urlKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read url index: %w", err)
	}

	if err := tx.Watch(ctx, DemoKey(id)).Err(); err != nil {
		return nil, fmt.Errorf("failed to watch demo: %w", err)
	}
	data, err := tx.Get(ctx, DemoKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get demo: %w", err)
	}
	return decode(data)
}

// GetAndCountView reads a demo and increments its view counter in one MULTI.
func (s *Store) GetAndCountView(ctx context.Context, id string) (*domain.DemoConfig, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, ViewsKey(id))
	get := pipe.Get(ctx, DemoKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}

	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		// INCR created a counter for an unknown id
		_ = s.client.Del(ctx, ViewsKey(id)).Err()
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get demo: %w", err)
	}

	demo, err := decode(data)
	if err != nil {
		return nil, err
	}
	demo.ViewCount = incr.Val()
	return demo, nil
}

// Get retrieves a demo by id
func (s *Store) Get(ctx context.Context, id string) (*domain.DemoConfig, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, DemoKey(id))
	views := pipe.Get(ctx, ViewsKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get demo: %w", err)
	}
	return fromCmds(get, views)
}

func fromCmds(get, views *redis.StringCmd) (*domain.DemoConfig, error) {
	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get demo: %w", err)
	}
	demo, err := decode(data)
	if err != nil {
		return nil, err
	}
	if n, err := views.Int64(); err == nil {
		demo.ViewCount = n
	}
	return demo, nil
}

// FindByPublication resolves the publication index
func (s *Store) FindByPublication(ctx context.Context, publication string) (*domain.DemoConfig, error) {
	id, err := s.client.Get(ctx, PublicationKey(publication)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read publication index: %w", err)
	}
	return s.Get(ctx, id)
}

// List retrieves all demos, most recently updated first
func (s *Store) List(ctx context.Context) ([]*domain.DemoConfig, error) {
	ids, err := s.client.ZRevRange(ctx, KeyRecent, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get demo IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.DemoConfig{}, nil
	}

	pipe := s.client.Pipeline()
	gets := make([]*redis.StringCmd, len(ids))
	views := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		gets[i] = pipe.Get(ctx, DemoKey(id))
		views[i] = pipe.Get(ctx, ViewsKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get demos: %w", err)
	}

	demos := make([]*domain.DemoConfig, 0, len(ids))
	for i := range ids {
		demo, err := fromCmds(gets[i], views[i])
		if err != nil {
			// Skip demos that couldn't be retrieved
			continue
		}
		demos = append(demos, demo)
	}

	return demos, nil
}

// Delete removes a demo and every index entry still pointing at it
func (s *Store) Delete(ctx context.Context, id string) error {
	key := DemoKey(id)

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

		urlKey := URLKey(demo.WebsiteURL)
		pubKey := PublicationKey(demo.Publication)
		if err := tx.Watch(ctx, urlKey, pubKey).Err(); err != nil {
			return fmt.Errorf("failed to watch indexes: %w", err)
		}
		ownsURL, err := getIfOwned(ctx, tx, urlKey, id)
		if err != nil {
			return err
		}
		ownsPub, err := getIfOwned(ctx, tx, pubKey, id)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key, ViewsKey(id))
			pipe.ZRem(ctx, KeyRecent, id)
			if ownsURL {
				pipe.Del(ctx, urlKey)
			}
			if ownsPub {
				pipe.Del(ctx, pubKey)
			}
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to delete demo: %w", err)
	}
	return nil
}
