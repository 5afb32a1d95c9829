// Package memory is a process-local UserRepository with the same contract as
// the Postgres adapter. It backs tests and `seed -dry-run`.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User), now: time.Now}
}

func errUserNotFound() error { return apperror.NotFound("user not found") }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return apperror.Conflict("email already registered")
	}
	u.ID = uuid.NewString()
	u.Version = 1
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u.Clone()
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errUserNotFound()
	}
	return u.Clone(), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, errUserNotFound()
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	return r.filter(func(*entity.User) bool { return true }), nil
}

func (r *UserRepository) SearchByField(_ context.Context, field repository.SearchField, value string) ([]*entity.User, error) {
	var match func(*entity.User) bool
	switch field {
	case repository.FieldID:
		match = func(u *entity.User) bool { return u.ID == value }
	case repository.FieldEmail:
		match = func(u *entity.User) bool { return u.Email == value }
	case repository.FieldName:
		match = func(u *entity.User) bool { return u.Name == value }
	case repository.FieldSurname:
		match = func(u *entity.User) bool { return u.Surname == value }
	case repository.FieldAge:
		age, err := strconv.Atoi(value)
		if err != nil {
			return nil, apperror.InvalidInput("age must be an integer")
		}
		match = func(u *entity.User) bool { return u.Age == age }
	case repository.FieldFriends:
		match = func(u *entity.User) bool { return u.HasRelation(entity.RelationFriend, value) }
	case repository.FieldEnemies:
		match = func(u *entity.User) bool { return u.HasRelation(entity.RelationEnemy, value) }
	default:
		return nil, apperror.InvalidInput(fmt.Sprintf("cannot search by %q", field))
	}
	return r.filter(match), nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok {
		return errUserNotFound()
	}
	if r.emailTaken(u.Email, u.ID) {
		return apperror.Conflict("email already registered")
	}
	u.UpdatedAt = r.now()

	next := cur.Clone()
	next.Email = u.Email
	next.Password = u.Password
	next.Name = u.Name
	next.Surname = u.Surname
	next.Age = u.Age
	next.UpdatedAt = u.UpdatedAt
	r.users[u.ID] = next
	return nil
}

func (r *UserRepository) SetAvatar(_ context.Context, id string, a *entity.Avatar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[id]
	if !ok {
		return errUserNotFound()
	}
	next := cur.Clone()
	next.Avatar = nil
	if a != nil {
		cp := *a
		next.Avatar = &cp
	}
	next.UpdatedAt = r.now()
	r.users[id] = next
	return nil
}

func (r *UserRepository) SetRelations(_ context.Context, id string, friends, enemies []string, expectedVersion int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[id]
	if !ok {
		return nil, errUserNotFound()
	}
	if cur.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	for _, other := range friends {
		if other == id {
			return nil, apperror.InvalidOperation("relation constraint violated")
		}
	}
	for _, other := range enemies {
		if other == id {
			return nil, apperror.InvalidOperation("relation constraint violated")
		}
	}

	next := cur.Clone()
	next.Friends = append([]string{}, friends...)
	next.Enemies = append([]string{}, enemies...)
	next.Version++
	next.UpdatedAt = r.now()
	r.users[id] = next
	return next.Clone(), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return errUserNotFound()
	}
	delete(r.users, id)

	for otherID, u := range r.users {
		if !u.HasRelation(entity.RelationFriend, id) && !u.HasRelation(entity.RelationEnemy, id) {
			continue
		}
		next := u.Clone()
		_, _ = next.RemoveRelation(entity.RelationFriend, id)
		_, _ = next.RemoveRelation(entity.RelationEnemy, id)
		next.Version++
		next.UpdatedAt = r.now()
		r.users[otherID] = next
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)

// emailTaken must be called with mu held.
func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) filter(match func(*entity.User) bool) []*entity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		if match(u) {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
