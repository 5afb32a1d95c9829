package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
)

// An unreachable Redis must behave like an empty cache.
func TestUserCacheFailsSafe(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	c := NewUserCache(rdb, time.Minute, nil)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Set(ctx, &entity.User{ID: "a1", Email: "a@example.com", Password: "hash"})
		c.Invalidate(ctx, "a1", "b1")
		c.Invalidate(ctx)
	})

	u, ok := c.Get(ctx, "a1")
	assert.False(t, ok)
	assert.Nil(t, u)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "user:cache:abc", key("abc"))
}
