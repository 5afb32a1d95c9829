package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

const userColumns = `id::text, email, password_hash, name, surname, age, avatar,
	friends::text[], enemies::text[], version, created_at, updated_at`

var searchClauses = map[repository.SearchField]string{
	repository.FieldID:      `id = $1::uuid`,
	repository.FieldEmail:   `email = $1`,
	repository.FieldName:    `name = $1`,
	repository.FieldSurname: `surname = $1`,
	repository.FieldAge:     `age = $1`,
	repository.FieldFriends: `$1::uuid = ANY (friends)`,
	repository.FieldEnemies: `$1::uuid = ANY (enemies)`,
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func errUserNotFound() error { return apperror.NotFound("user not found") }

// validID rejects anything postgres would refuse to cast to uuid; such IDs cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	avatar, err := marshalAvatar(u.Avatar)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, surname, age, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, version, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.Surname, u.Age, avatar)

	if err := row.Scan(&u.ID, &u.Version, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return translate(err)
	}
	u.Friends, u.Enemies = []string{}, []string{}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, errUserNotFound()
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) SearchByField(ctx context.Context, field repository.SearchField, value string) ([]*entity.User, error) {
	clause, ok := searchClauses[field]
	if !ok {
		return nil, apperror.InvalidInput(fmt.Sprintf("cannot search by %q", field))
	}

	var arg any = value
	switch field {
	case repository.FieldID, repository.FieldFriends, repository.FieldEnemies:
		if !validID(value) {
			return []*entity.User{}, nil
		}
	case repository.FieldAge:
		age, err := strconv.Atoi(value)
		if err != nil {
			return nil, apperror.InvalidInput("age must be an integer")
		}
		arg = age
	}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+clause+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if !validID(u.ID) {
		return errUserNotFound()
	}
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3, surname = $4, age = $5, updated_at = $6
		WHERE id = $7::uuid
	`, u.Email, u.Password, u.Name, u.Surname, u.Age, u.UpdatedAt, u.ID)
	if err != nil {
		return translate(err)
	}

	if res.RowsAffected() == 0 {
		return errUserNotFound()
	}

	return nil
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, a *entity.Avatar) error {
	if !validID(id) {
		return errUserNotFound()
	}
	avatar, err := marshalAvatar(a)
	if err != nil {
		return err
	}

	res, err := r.pool.Exec(ctx, `UPDATE users SET avatar = $1, updated_at = $2 WHERE id = $3::uuid`, avatar, time.Now(), id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return errUserNotFound()
	}
	return nil
}

func (r *UserRepository) SetRelations(ctx context.Context, id string, friends, enemies []string, expectedVersion int64) (*entity.User, error) {
	if !validID(id) {
		return nil, errUserNotFound()
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET friends = $2::text[]::uuid[], enemies = $3::text[]::uuid[], version = version + 1, updated_at = now()
		WHERE id = $1::uuid AND version = $4
		RETURNING `+userColumns,
		id, nonNil(friends), nonNil(enemies), expectedVersion)

	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, translate(err)
	}

	// no row matched: either the user is gone or someone else wrote first
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1::uuid)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrVersionConflict
	}
	return nil, errUserNotFound()
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errUserNotFound()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errUserNotFound()
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET friends = array_remove(friends, $1::uuid),
		    enemies = array_remove(enemies, $1::uuid),
		    version = version + 1,
		    updated_at = now()
		WHERE $1::uuid = ANY (friends) OR $1::uuid = ANY (enemies)
	`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var avatar []byte
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Surname, &u.Age, &avatar,
		&u.Friends, &u.Enemies, &u.Version, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound()
		}
		return nil, err
	}
	if len(avatar) > 0 {
		u.Avatar = &entity.Avatar{}
		if err := json.Unmarshal(avatar, u.Avatar); err != nil {
			return nil, fmt.Errorf("decode avatar: %w", err)
		}
	}
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	defer rows.Close()
	out := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func marshalAvatar(a *entity.Avatar) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.Wrap(apperror.KindConflict, "email already registered", err)
		case pgCheckViolation:
			return apperror.Wrap(apperror.KindInvalidOperation, "relation constraint violated", err)
		}
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
