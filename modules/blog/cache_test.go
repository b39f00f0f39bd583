package blog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/modules/blog"
)

func newCache(t *testing.T) (*blog.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return blog.NewCache(client, time.Minute, nil), mr
}

func TestCacheCategories(t *testing.T) {
	t.Parallel()

	t.Run("loads once and serves from cache", func(t *testing.T) {
		t.Parallel()

		cache, _ := newCache(t)
		calls := 0
		load := func(context.Context) ([]string, error) {
			calls++
			return []string{"go", "life"}, nil
		}

		got, err := cache.Categories(context.Background(), load)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "life"}, got)

		got, err = cache.Categories(context.Background(), load)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "life"}, got)
		assert.Equal(t, 1, calls)
	})

	t.Run("loader errors propagate", func(t *testing.T) {
		t.Parallel()

		cache, _ := newCache(t)
		boom := errors.New("db down")
		_, err := cache.Categories(context.Background(), func(context.Context) ([]string, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("expired value reloads", func(t *testing.T) {
		t.Parallel()

		cache, mr := newCache(t)
		calls := 0
		load := func(context.Context) ([]string, error) {
			calls++
			return []string{"go"}, nil
		}

		_, err := cache.Categories(context.Background(), load)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		_, err = cache.Categories(context.Background(), load)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("unreachable redis falls back to loader", func(t *testing.T) {
		t.Parallel()

		cache, mr := newCache(t)
		mr.Close()

		got, err := cache.Categories(context.Background(), func(context.Context) ([]string, error) {
			return []string{"go"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"go"}, got)
	})
}

func TestCacheRecentEntries(t *testing.T) {
	t.Parallel()

	cache, _ := newCache(t)
	entries := []blog.Entry{
		{ID: 2, Title: "newer", EntryTime: time.Now().UTC().Truncate(time.Second)},
		{ID: 1, Title: "older", EntryTime: time.Now().UTC().Truncate(time.Second).Add(-time.Hour)},
	}
	calls := 0
	load := func(context.Context) ([]blog.Entry, error) {
		calls++
		return entries, nil
	}

	got, err := cache.RecentEntries(context.Background(), load)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	got, err = cache.RecentEntries(context.Background(), load)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, 1, calls)
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	cache, _ := newCache(t)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"go"}, nil
	}

	_, err := cache.Categories(context.Background(), load)
	require.NoError(t, err)

	cache.Invalidate(context.Background())

	_, err = cache.Categories(context.Background(), load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
