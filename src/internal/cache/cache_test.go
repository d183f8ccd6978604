package cache

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, mc.Set(ctx, "greeting", "hello", time.Minute))

		value, err := mc.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := mc.Get(ctx, "does-not-exist")
		assert.Error(t, err)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, mc.Set(ctx, "ephemeral", "gone soon", -time.Second))

		_, err := mc.Get(ctx, "ephemeral")
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, mc.Set(ctx, "doomed", "x", time.Minute))
		require.NoError(t, mc.Delete(ctx, "doomed"))

		_, err := mc.Get(ctx, "doomed")
		assert.Error(t, err)
	})

	t.Run("DeletePattern", func(t *testing.T) {
		require.NoError(t, mc.Set(ctx, "user:1:recipes", "a", time.Minute))
		require.NoError(t, mc.Set(ctx, "user:1:tags", "b", time.Minute))
		require.NoError(t, mc.Set(ctx, "user:2:recipes", "c", time.Minute))

		require.NoError(t, mc.DeletePattern(ctx, "user:1:*"))

		_, err := mc.Get(ctx, "user:1:recipes")
		assert.Error(t, err)
		_, err = mc.Get(ctx, "user:1:tags")
		assert.Error(t, err)

		value, err := mc.Get(ctx, "user:2:recipes")
		require.NoError(t, err)
		assert.Equal(t, "c", value)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		type payload struct {
			Title string `json:"title"`
			Count int    `json:"count"`
		}

		require.NoError(t, mc.SetJSON(ctx, "payload", payload{Title: "Curry", Count: 3}, time.Minute))

		var got payload
		require.NoError(t, mc.GetJSON(ctx, "payload", &got))
		assert.Equal(t, "Curry", got.Title)
		assert.Equal(t, 3, got.Count)
	})
}

func TestManagerFallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	cfg := viper.New()
	cfg.Set("cache.enabled", true)
	cfg.Set("redis.enabled", false)
	cfg.Set("cache.key_prefix", "test:")

	m := NewManager(cfg)

	require.NoError(t, m.Set(ctx, RecipeKey("u1", "abc"), "cached", TTLShort))

	value, err := m.Get(ctx, RecipeKey("u1", "abc"))
	require.NoError(t, err)
	assert.Equal(t, "cached", value)

	require.NoError(t, m.Delete(ctx, RecipeKey("u1", "abc")))
	_, err = m.Get(ctx, RecipeKey("u1", "abc"))
	assert.Error(t, err)
}

func TestManagerDisabled(t *testing.T) {
	ctx := context.Background()

	cfg := viper.New()
	cfg.Set("cache.enabled", false)

	m := NewManager(cfg)

	require.NoError(t, m.Set(ctx, "key", "value", TTLShort))
	_, err := m.Get(ctx, "key")
	assert.Error(t, err)
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("*", "anything"))
	assert.True(t, matchPattern("recipe:*", "recipe:123"))
	assert.False(t, matchPattern("recipe:*", "tag:123"))
	assert.True(t, matchPattern("exact", "exact"))
	assert.False(t, matchPattern("exact", "exactly"))
}
