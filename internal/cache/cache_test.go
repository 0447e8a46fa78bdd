package cache

import (
	"testing"
	"time"

	"github.com/alimgiray/gitprofile/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(t *testing.T, clock *fakeClock) *ResponseCache {
	t.Helper()
	c, err := New(config.CacheConfig{TTLSeconds: 300, MaxSizeMB: 1}, WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestResponseCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("Set and Get", func(t *testing.T) {
		c := newTestCache(t, clock)
		c.Set("https://api.github.com/users/octocat", []byte(`{"login":"octocat"}`))

		body, found := c.Get("https://api.github.com/users/octocat")
		require.True(t, found)
		assert.JSONEq(t, `{"login":"octocat"}`, string(body))
	})

	t.Run("Missing key", func(t *testing.T) {
		c := newTestCache(t, clock)
		_, found := c.Get("https://api.github.com/users/nobody")
		assert.False(t, found)
	})

	t.Run("Entry expires at TTL", func(t *testing.T) {
		c := newTestCache(t, clock)
		c.Set("key", []byte("value"))

		clock.Advance(4*time.Minute + 59*time.Second)
		_, found := c.Get("key")
		assert.True(t, found, "entry younger than the TTL must be served")

		clock.Advance(time.Second)
		_, found = c.Get("key")
		assert.False(t, found, "entry as old as the TTL must not be served")
	})

	t.Run("Delete", func(t *testing.T) {
		c := newTestCache(t, clock)
		c.Set("key", []byte("value"))
		c.Delete("key")

		_, found := c.Get("key")
		assert.False(t, found)
	})

	t.Run("Non positive TTL falls back to default", func(t *testing.T) {
		c, err := New(config.CacheConfig{TTLSeconds: 0})
		require.NoError(t, err)
		defer c.Close()
		assert.Equal(t, DefaultTTL, c.TTL())
	})
}
