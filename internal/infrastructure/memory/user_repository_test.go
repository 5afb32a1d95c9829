package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
)

func create(t *testing.T, r *UserRepository, email string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Name: "N", Age: 20}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func TestSetRelationsVersionCheck(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	a := create(t, r, "a@example.com")
	b := create(t, r, "b@example.com")

	got, err := r.SetRelations(ctx, a.ID, []string{b.ID}, nil, a.Version)
	require.NoError(t, err)
	assert.Equal(t, a.Version+1, got.Version)

	_, err = r.SetRelations(ctx, a.ID, nil, []string{b.ID}, a.Version)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	_, err = r.SetRelations(ctx, a.ID, []string{a.ID}, nil, got.Version)
	assert.ErrorIs(t, err, apperror.ErrInvalidOperation)

	_, err = r.SetRelations(ctx, "missing", nil, nil, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	a := create(t, r, "a@example.com")
	b := create(t, r, "b@example.com")
	c := create(t, r, "c@example.com")

	_, err := r.SetRelations(ctx, a.ID, []string{b.ID}, []string{c.ID}, a.Version)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, c.ID))
	got, err := r.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.Friends)
	assert.Empty(t, got.Enemies)

	assert.ErrorIs(t, r.Delete(ctx, c.ID), apperror.ErrNotFound)
}

func TestSearchByField(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	a := create(t, r, "a@example.com")
	b := create(t, r, "b@example.com")
	_, err := r.SetRelations(ctx, a.ID, []string{b.ID}, nil, a.Version)
	require.NoError(t, err)

	users, err := r.SearchByField(ctx, repository.FieldFriends, b.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, a.ID, users[0].ID)

	users, err = r.SearchByField(ctx, repository.FieldAge, "20")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = r.SearchByField(ctx, repository.FieldAge, "twenty")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	err = r.Create(ctx, &entity.User{Email: "A@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUpdateLeavesAvatarAlone(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	u := create(t, r, "av@example.com")

	stale, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, r.SetAvatar(ctx, u.ID, &entity.Avatar{ObjectPath: "avatars/x/2.png", URL: "https://cdn/2.png"}))

	stale.Name = "Renamed"
	require.NoError(t, r.Update(ctx, stale))

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "avatars/x/2.png", got.Avatar.ObjectPath)

	require.NoError(t, r.SetAvatar(ctx, u.ID, nil))
	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Avatar)

	assert.ErrorIs(t, r.SetAvatar(ctx, "missing", nil), apperror.ErrNotFound)
}
