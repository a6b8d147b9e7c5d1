package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID    string `json:"id"`
	Votes int64  `json:"votes"`
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisCache(client, "syntagma:")
	ctx := context.Background()

	var got []entry
	hit, err := c.Get(ctx, "comments:list", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []entry{{ID: "a", Votes: 2}, {ID: "b", Votes: -1}}
	require.NoError(t, c.Set(ctx, "comments:list", want, time.Minute))
	assert.True(t, mr.Exists("syntagma:comments:list"))

	hit, err = c.Get(ctx, "comments:list", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "comments:list"))
	hit, err = c.Get(ctx, "comments:list", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_Expires(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisCache(client, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{ID: "x"}, 10*time.Second))
	mr.FastForward(11 * time.Second)

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_Unavailable(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisCache(client, "")
	mr.Close()

	var got entry
	_, err := c.Get(context.Background(), "k", &got)
	assert.Error(t, err)
}

func TestLocalCache_TTLAndDelete(t *testing.T) {
	c, err := NewLocalCache(8)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{ID: "x", Votes: 3}, time.Minute))

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{ID: "x", Votes: 3}, got)

	now = now.Add(2 * time.Minute)
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", entry{ID: "y"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k", "other"))
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisLimiter_Allow(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLimiter(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		ok, n, err := l.Allow(ctx, "post:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, n)
	}

	ok, n, err := l.Allow(ctx, "post:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 4, n)

	ok, _, err = l.Allow(ctx, "post:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, n, err = l.Allow(ctx, "post:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, n)
}

func TestRedisLimiter_RetriesDoNotExtendWindow(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLimiter(client)
	ctx := context.Background()

	ok, _, err := l.Allow(ctx, "post:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(40 * time.Second)
	ok, _, err = l.Allow(ctx, "post:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(21 * time.Second)
	ok, n, err := l.Allow(ctx, "post:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, n)
}

func TestLocalLimiter_RetriesDoNotExtendWindow(t *testing.T) {
	l, err := NewLocalLimiter(16)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _, _ := l.Allow(ctx, "k", 1, time.Minute)
	assert.True(t, ok)
	now = now.Add(40 * time.Second)
	ok, _, _ = l.Allow(ctx, "k", 1, time.Minute)
	assert.False(t, ok)
	now = now.Add(21 * time.Second)
	ok, n, _ := l.Allow(ctx, "k", 1, time.Minute)
	assert.True(t, ok)
	assert.EqualValues(t, 1, n)
}

func TestLocalLimiter_Allow(t *testing.T) {
	l, err := NewLocalLimiter(16)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _, _ := l.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, ok)
	ok, n, _ := l.Allow(ctx, "k", 2, time.Minute)
	assert.False(t, ok)
	assert.EqualValues(t, 3, n)

	now = now.Add(time.Minute)
	ok, n, _ = l.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, ok)
	assert.EqualValues(t, 1, n)
}
