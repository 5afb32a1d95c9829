package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/config"
	"github.com/oksasatya/go-user-relations/internal/application"
	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-relations/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
)

const demoPassword = "password123"

var demoUsers = []application.RegisterInput{
	{Email: "alice@example.com", Name: "Alice", Surname: "Anders", Age: 31},
	{Email: "bob@example.com", Name: "Bob", Surname: "Brown", Age: 27},
	{Email: "carol@example.com", Name: "Carol", Surname: "Cruz", Age: 45},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "seed an in-memory store instead of Postgres")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	var users repository.UserRepository
	if *dryRun {
		users = memory.NewUserRepository()
	} else {
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{DSN: cfg.PostgresDSN(), MaxConns: 2, MinConns: 1, MaxConnLife: cfg.DBMaxConnLife})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		users = pginfra.NewUserRepository(pool)
	}

	svc := application.NewService(users, helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), nil, nil, nil, nil, logger)
	relations := application.NewRelationService(users, nil, logger, cfg.RelationMaxRetries)

	seeded := make([]*entity.User, 0, len(demoUsers))
	for _, in := range demoUsers {
		in.Password = demoPassword
		u, err := svc.Register(ctx, in)
		if errors.Is(err, apperror.ErrConflict) {
			u, err = users.GetByEmail(ctx, in.Email)
		}
		if err != nil {
			log.Fatalf("failed to seed %s: %v", in.Email, err)
		}
		seeded = append(seeded, u)
		logger.WithFields(logrus.Fields{"id": u.ID, "email": u.Email}).Info("seeded user")
	}

	alice, bob, carol := seeded[0], seeded[1], seeded[2]
	if _, err := relations.AddFriend(ctx, bob.ID, alice.ID); err != nil {
		log.Fatalf("failed to add friend: %v", err)
	}
	u, err := relations.AddEnemy(ctx, carol.ID, alice.ID)
	if err != nil {
		log.Fatalf("failed to add enemy: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"id":       u.ID,
		"friends":  u.Friends,
		"enemies":  u.Enemies,
		"password": demoPassword,
	}).Info("seeded relations")
}
