// Package storetest holds the behaviour every store.DemoStore must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.DemoStore

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func input(url, pub string, design domain.Design) domain.DemoInput {
	in := domain.DemoInput{
		WebsiteURL:   url,
		Publication:  pub,
		PlayerConfig: domain.PlayerConfig{Design: design, ShowAds: true},
		Placement:    &domain.Placement{Selector: "h1 + *", Position: domain.PositionBefore},
	}
	if err := in.Normalize(); err != nil {
		panic(err)
	}
	return in
}

// Run executes the shared suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("upsert twice keeps one record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, created, err := s.Upsert(ctx, input("https://news.ext/", "news", domain.DesignA), t0)
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := s.Upsert(ctx, input("https://NEWS.ext", "news", domain.DesignB), t0.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, created)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "https://news.ext/", first.WebsiteURL)
		assert.Equal(t, "https://news.ext", second.WebsiteURL, "the latest operator url is the one fetched")
		assert.Equal(t, domain.DesignB, second.PlayerConfig.Design)
		assert.True(t, second.CreatedAt.Equal(t0), "createdAt must not move")
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt), "updatedAt must advance")

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, domain.DesignB, all[0].PlayerConfig.Design)
	})

	t.Run("concurrent upserts on one url", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, err := s.Upsert(ctx, input("https://race.ext", "race", domain.DesignA), t0.Add(time.Duration(i)*time.Second))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("get and count view", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		demo, _, err := s.Upsert(ctx, input("https://views.ext", "views", domain.DesignA), t0)
		require.NoError(t, err)

		for want := int64(1); want <= 3; want++ {
			got, err := s.GetAndCountView(ctx, demo.ID)
			require.NoError(t, err)
			assert.Equal(t, want, got.ViewCount)
		}

		plain, err := s.Get(ctx, demo.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), plain.ViewCount, "Get must not count a view")

		_, err = s.GetAndCountView(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list most recent first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, _, err := s.Upsert(ctx, input("https://a.ext", "a", domain.DesignA), t0)
		require.NoError(t, err)
		_, _, err = s.Upsert(ctx, input("https://b.ext", "b", domain.DesignA), t0.Add(time.Hour))
		require.NoError(t, err)
		_, _, err = s.Upsert(ctx, input("https://a.ext", "a", domain.DesignB), t0.Add(2*time.Hour))
		require.NoError(t, err)

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "https://a.ext", all[0].WebsiteURL)
		assert.Equal(t, "https://b.ext", all[1].WebsiteURL)
	})

	t.Run("publication index follows renames", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		demo, _, err := s.Upsert(ctx, input("https://pub.ext", "old-name", domain.DesignA), t0)
		require.NoError(t, err)
		_, _, err = s.Upsert(ctx, input("https://pub.ext", "new-name", domain.DesignA), t0.Add(time.Minute))
		require.NoError(t, err)

		_, err = s.FindByPublication(ctx, "old-name")
		assert.ErrorIs(t, err, store.ErrNotFound)

		found, err := s.FindByPublication(ctx, "new-name")
		require.NoError(t, err)
		assert.Equal(t, demo.ID, found.ID)
	})

	t.Run("mark installed once", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, _, err := s.Upsert(ctx, input("https://inst.ext", "inst", domain.DesignA), t0)
		require.NoError(t, err)

		demo, transitioned, err := s.MarkInstalled(ctx, "inst", t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.True(t, demo.IsInstalled)
		require.NotNil(t, demo.InstalledAt)

		again, transitioned, err := s.MarkInstalled(ctx, "inst", t0.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.True(t, again.InstalledAt.Equal(t0.Add(time.Hour)), "installedAt is set exactly once")

		// an operator edit keeps the install state
		edited, _, err := s.Upsert(ctx, input("https://inst.ext", "inst", domain.DesignB), t0.Add(3*time.Hour))
		require.NoError(t, err)
		assert.True(t, edited.IsInstalled)
	})

	t.Run("mark installed unknown publication", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, _, err := s.MarkInstalled(ctx, "nobody", t0)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		demo, _, err := s.Upsert(ctx, input("https://del.ext", "del", domain.DesignA), t0)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, demo.ID))
		assert.ErrorIs(t, s.Delete(ctx, demo.ID), store.ErrNotFound)

		_, err = s.Get(ctx, demo.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.FindByPublication(ctx, "del")
		assert.ErrorIs(t, err, store.ErrNotFound)

		recreated, created, err := s.Upsert(ctx, input("https://del.ext", "del", domain.DesignA), t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, demo.ID, recreated.ID)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
