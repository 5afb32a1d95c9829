package application

import (
	"context"
	"errors"
	"expvar"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	repo "github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
)

const defaultRelationRetries = 3

var (
	relationWrites  = expvar.NewInt("relation_writes")
	relationRetries = expvar.NewInt("relation_version_retries")
)

// RelationService mutates the friend and enemy sets of a user.
//
// Writes for one user are serialized in-process by Locks and guarded across
// processes by the version check in SetRelations; a lost race re-reads and re-applies.
type RelationService struct {
	Repo       repo.UserRepository
	Cache      UserCache
	Logger     *logrus.Logger
	Locks      *KeyedMutex
	MaxRetries int
}

func NewRelationService(repo repo.UserRepository, cache UserCache, logger *logrus.Logger, maxRetries int) *RelationService {
	if maxRetries <= 0 {
		maxRetries = defaultRelationRetries
	}
	return &RelationService{
		Repo:       repo,
		Cache:      cache,
		Logger:     logger,
		Locks:      NewKeyedMutex(),
		MaxRetries: maxRetries,
	}
}

func (s *RelationService) AddFriend(ctx context.Context, friendID, userID string) (*entity.User, error) {
	return s.SetRelation(ctx, userID, friendID, entity.RelationFriend)
}

func (s *RelationService) AddEnemy(ctx context.Context, enemyID, userID string) (*entity.User, error) {
	return s.SetRelation(ctx, userID, enemyID, entity.RelationEnemy)
}

func (s *RelationService) RemoveFriend(ctx context.Context, friendID, userID string) (*entity.User, error) {
	return s.RemoveRelation(ctx, userID, friendID, entity.RelationFriend)
}

func (s *RelationService) RemoveEnemy(ctx context.Context, enemyID, userID string) (*entity.User, error) {
	return s.RemoveRelation(ctx, userID, enemyID, entity.RelationEnemy)
}

// SetRelation puts otherID into selfID's kind set and out of the opposite one.
// Adding an existing relation returns the stored user without writing.
func (s *RelationService) SetRelation(ctx context.Context, selfID, otherID string, kind entity.RelationKind) (*entity.User, error) {
	if !kind.Valid() {
		return nil, apperror.InvalidInput("unknown relation kind")
	}
	if selfID == otherID {
		return nil, apperror.InvalidOperation("you can't add yourself")
	}
	targetExists := func(ctx context.Context) error {
		if _, err := s.Repo.GetByID(ctx, otherID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NotFound("target user not found")
			}
			return err
		}
		return nil
	}
	return s.apply(ctx, selfID, func(u *entity.User) (bool, error) {
		return u.AddRelation(kind, otherID)
	}, targetExists)
}

// RemoveRelation drops otherID from selfID's kind set. Removing an absent relation is a no-op.
func (s *RelationService) RemoveRelation(ctx context.Context, selfID, otherID string, kind entity.RelationKind) (*entity.User, error) {
	if !kind.Valid() {
		return nil, apperror.InvalidInput("unknown relation kind")
	}
	return s.apply(ctx, selfID, func(u *entity.User) (bool, error) {
		return u.RemoveRelation(kind, otherID)
	}, nil)
}

func (s *RelationService) apply(ctx context.Context, selfID string, change func(*entity.User) (bool, error), beforeWrite func(context.Context) error) (*entity.User, error) {
	unlock, err := s.Locks.Lock(ctx, selfID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		current, err := s.Repo.GetByID(ctx, selfID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.NotFound("user not found")
			}
			return nil, err
		}

		next := current.Clone()
		changed, err := change(next)
		if err != nil {
			if errors.Is(err, entity.ErrSelfRelation) {
				return nil, apperror.InvalidOperation("you can't add yourself")
			}
			return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid relation", err)
		}
		if !changed {
			return current, nil
		}

		if beforeWrite != nil {
			if err := beforeWrite(ctx); err != nil {
				return nil, err
			}
			beforeWrite = nil
		}

		updated, err := s.Repo.SetRelations(ctx, selfID, next.Friends, next.Enemies, current.Version)
		if errors.Is(err, repo.ErrVersionConflict) {
			relationRetries.Add(1)
			if s.Logger != nil {
				s.Logger.WithFields(logrus.Fields{"user_id": selfID, "attempt": attempt}).Debug("relation write lost a version race, retrying")
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		relationWrites.Add(1)
		if s.Cache != nil {
			s.Cache.Invalidate(ctx, selfID)
		}
		return updated, nil
	}

	return nil, apperror.Wrap(apperror.KindConflict, "relation update kept losing to concurrent writes", repo.ErrVersionConflict)
}
