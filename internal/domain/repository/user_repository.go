package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
)

// ErrVersionConflict is returned by SetRelations when the stored version moved
// past the expected one.
var ErrVersionConflict = errors.New("user version conflict")

// SearchField is a user attribute that supports exact-match lookup.
type SearchField string

const (
	FieldID      SearchField = "id"
	FieldEmail   SearchField = "email"
	FieldName    SearchField = "name"
	FieldSurname SearchField = "surname"
	FieldAge     SearchField = "age"
	FieldFriends SearchField = "friends"
	FieldEnemies SearchField = "enemies"
)

// SearchFields lists every field accepted by SearchByField.
var SearchFields = []SearchField{FieldID, FieldEmail, FieldName, FieldSurname, FieldAge, FieldFriends, FieldEnemies}

func (f SearchField) Valid() bool {
	for _, v := range SearchFields {
		if v == f {
			return true
		}
	}
	return false
}

// UserRepository defines the interface for user-related database operations.
// Lookups of missing users return an error matching apperror.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	// SearchByField matches value exactly; for friends/enemies it matches set membership.
	SearchByField(ctx context.Context, field SearchField, value string) ([]*entity.User, error)
	// Update persists profile fields (email, password, name, surname, age). It never touches the avatar.
	Update(ctx context.Context, u *entity.User) error
	// SetAvatar replaces the stored avatar metadata; nil clears it.
	SetAvatar(ctx context.Context, id string, a *entity.Avatar) error
	// SetRelations writes both relation sets iff the stored version equals expectedVersion,
	// bumping the version on success.
	SetRelations(ctx context.Context, id string, friends, enemies []string, expectedVersion int64) (*entity.User, error)
	// Delete removes the user and pulls its ID out of every other user's relation sets.
	Delete(ctx context.Context, id string) error
}
