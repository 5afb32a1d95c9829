package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
)

const keyPrefix = "user:cache:"

// UserCache keeps single-user lookups in Redis. Redis errors are logged and
// treated as misses so a cache outage never fails a request.
type UserCache struct {
	RDB    *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewUserCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserCache {
	return &UserCache{RDB: rdb, TTL: ttl, Logger: logger}
}

// cachedUser is the stored shape; the password hash never leaves Postgres.
type cachedUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Surname   string         `json:"surname"`
	Age       int            `json:"age"`
	Avatar    *entity.Avatar `json:"avatar,omitempty"`
	Friends   []string       `json:"friends"`
	Enemies   []string       `json:"enemies"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func key(id string) string { return keyPrefix + id }

func (c *UserCache) Get(ctx context.Context, id string) (*entity.User, bool) {
	var cu cachedUser
	ok, err := helpers.RedisGetJSON(ctx, c.RDB, key(id), &cu)
	if err != nil {
		helpers.LogWarn(c.Logger, "user cache read failed", err, logrus.Fields{"user_id": id})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &entity.User{
		ID:        cu.ID,
		Email:     cu.Email,
		Name:      cu.Name,
		Surname:   cu.Surname,
		Age:       cu.Age,
		Avatar:    cu.Avatar,
		Friends:   cu.Friends,
		Enemies:   cu.Enemies,
		Version:   cu.Version,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, true
}

func (c *UserCache) Set(ctx context.Context, u *entity.User) {
	cu := cachedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Surname:   u.Surname,
		Age:       u.Age,
		Avatar:    u.Avatar,
		Friends:   u.Friends,
		Enemies:   u.Enemies,
		Version:   u.Version,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if err := helpers.RedisSetJSON(ctx, c.RDB, key(u.ID), cu, c.TTL); err != nil {
		helpers.LogWarn(c.Logger, "user cache write failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (c *UserCache) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, key(id))
	}
	if err := helpers.RedisDel(ctx, c.RDB, keys...); err != nil {
		helpers.LogWarn(c.Logger, "user cache invalidate failed", err, logrus.Fields{"keys": keys})
	}
}
