package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/config"
	"github.com/oksasatya/go-user-relations/internal/application"
	"github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/go-user-relations/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-relations/internal/infrastructure/search"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
)

// Container holds the constructed infrastructure and services shared by the router.
// Optional integrations (Redis, GCS, Elasticsearch, RabbitMQ) stay nil when unconfigured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	GCS       *storage.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher

	JWT       *helpers.JWTManager
	Users     repository.UserRepository
	Service   *application.Service
	Relations *application.RelationService
}

// Build connects to every configured backend and wires the services.
// On error, whatever was opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (_ *Container, err error) {
	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.PGPool, err = pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:         cfg.PostgresDSN(),
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.Users = pginfra.NewUserRepository(c.PGPool)

	var userCache application.UserCache
	if cfg.RedisAddr != "" {
		c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if perr := c.Redis.Ping(ctx).Err(); perr != nil {
			helpers.LogWarn(logger, "redis unreachable; cache and rate limits fail open", perr, nil)
		}
		userCache = cache.NewUserCache(c.Redis, cfg.UserCacheTTL, logger)
	}

	var avatars application.ObjectStore
	if cfg.GCSBucket != "" {
		c.GCS, err = helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		avatars = helpers.NewGCSObjectStore(c.GCS, cfg.GCSBucket)
	} else {
		logger.Warn("GCS_BUCKET not set; avatar uploads are ignored")
	}

	var index application.SearchIndex
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		c.ES, err = search.NewClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		index = search.NewUserIndex(c.ES, cfg.ESUsersIndex)
	}

	var events application.EventPublisher
	if cfg.RabbitMQURL != "" {
		c.RabbitPub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		events = c.RabbitPub
	}

	c.JWT = helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	c.Service = application.NewService(c.Users, c.JWT, avatars, index, userCache, events, logger)
	c.Relations = application.NewRelationService(c.Users, userCache, logger, cfg.RelationMaxRetries)
	c.Relations.Locks = c.Service.Locks
	return c, nil
}

func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
