package application

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	repo "github.com/oksasatya/go-user-relations/internal/domain/repository"
	"github.com/oksasatya/go-user-relations/internal/infrastructure/search"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
	"github.com/oksasatya/go-user-relations/pkg/mailer"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("invalid credentials")
	ErrUserNotFound       = apperror.NotFound("user not found")
	ErrSelfUpdate         = apperror.InvalidOperation("you can't add yourself")
	ErrSearchUnavailable  = apperror.Unavailable("full-text search is not configured")
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

type Service struct {
	Repo    repo.UserRepository
	JWT     *helpers.JWTManager
	Avatars ObjectStore
	Index   SearchIndex
	Cache   UserCache
	Events  EventPublisher
	Logger  *logrus.Logger
	// Locks serializes profile writes per user; share it with RelationService.
	Locks *KeyedMutex
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, avatars ObjectStore, index SearchIndex, cache UserCache, events EventPublisher, logger *logrus.Logger) *Service {
	return &Service{
		Repo:    repo,
		JWT:     jwt,
		Avatars: avatars,
		Index:   index,
		Cache:   cache,
		Events:  events,
		Logger:  logger,
		Locks:   NewKeyedMutex(),
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Surname  string
	Age      int
	Avatar   *Upload
}

// Register hashes the password, stores the optional avatar and creates the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: hash,
		Name:     in.Name,
		Surname:  in.Surname,
		Age:      in.Age,
	}

	if in.Avatar != nil {
		avatar, err := s.storeAvatar(ctx, "", in.Avatar)
		if err != nil {
			return nil, err
		}
		u.Avatar = avatar
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		if u.Avatar != nil {
			s.dropObject(ctx, u.Avatar.ObjectPath)
		}
		return nil, err
	}

	s.reindex(ctx, u)
	s.publishWelcome(ctx, u)
	return u, nil
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User  *entity.User
	Token string
}

// Login checks email and password and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// LoginByID issues a token for an existing user without checking credentials.
// Callers must gate it; it is meant for internal re-authentication only.
func (s *Service) LoginByID(ctx context.Context, id string) (*LoginResult, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("identifier login issued token")
	}
	return s.issue(u)
}

func (s *Service) issue(u *entity.User) (*LoginResult, error) {
	token, _, err := s.JWT.Sign(u.ID, u.Email)
	if err != nil {
		helpers.LogError(s.Logger, "sign token failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	return &LoginResult{User: u, Token: token}, nil
}

func (s *Service) List(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

// Get returns one user, served from cache when possible.
func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	if s.Cache != nil {
		if u, ok := s.Cache.Get(ctx, id); ok {
			return u, nil
		}
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, u)
	}
	return u, nil
}

// Search returns users whose field matches value exactly.
func (s *Service) Search(ctx context.Context, field, value string) ([]*entity.User, error) {
	f := repo.SearchField(strings.ToLower(strings.TrimSpace(field)))
	if !f.Valid() {
		return nil, apperror.InvalidInput("unsupported search key " + field)
	}
	return s.Repo.SearchByField(ctx, f, value)
}

// SearchText runs a full-text query against the search index.
func (s *Service) SearchText(ctx context.Context, q string, size int) ([]search.Hit, error) {
	if s.Index == nil {
		return nil, ErrSearchUnavailable
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	return s.Index.Search(ctx, q, size)
}

// UpdateUserInput lists the updatable fields; nil means unchanged.
// ID is only inspected to reject self-referential payloads.
type UpdateUserInput struct {
	ID       string
	Email    *string
	Password *string
	Name     *string
	Surname  *string
	Age      *int
}

func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	if in.ID != "" && in.ID == id {
		return nil, ErrSelfUpdate
	}
	unlock, err := s.Locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Password != nil {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Surname != nil {
		u.Surname = *in.Surname
	}
	if in.Age != nil {
		u.Age = *in.Age
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.invalidate(ctx, u.ID)
	s.reindex(ctx, u)
	return u, nil
}

// UploadAvatar stores a new avatar for the user and removes the previous object.
func (s *Service) UploadAvatar(ctx context.Context, id string, up *Upload) (*entity.User, error) {
	unlock, err := s.Locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if s.Avatars == nil {
		return nil, apperror.InvalidInput("avatar storage not configured")
	}
	avatar, err := s.storeAvatar(ctx, u.ID, up)
	if err != nil {
		return nil, err
	}
	previous := u.Avatar
	u.Avatar = avatar
	if err := s.Repo.SetAvatar(ctx, u.ID, avatar); err != nil {
		s.dropObject(ctx, avatar.ObjectPath)
		return nil, err
	}
	if previous != nil {
		s.dropObject(ctx, previous.ObjectPath)
	}
	s.invalidate(ctx, u.ID)
	s.reindex(ctx, u)
	return u, nil
}

// Delete removes the user permanently, along with any references other users hold to it.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock, err := s.Locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	referrers := s.referrers(ctx, id)

	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.invalidate(ctx, append(referrers, id)...)
	if u.Avatar != nil {
		s.dropObject(ctx, u.Avatar.ObjectPath)
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			helpers.LogWarn(s.Logger, "search index delete failed", err, logrus.Fields{"user_id": id})
		}
	}
	return nil
}

// referrers lists users whose relation sets point at id; only used for cache invalidation.
func (s *Service) referrers(ctx context.Context, id string) []string {
	if s.Cache == nil {
		return nil
	}
	var ids []string
	for _, f := range []repo.SearchField{repo.FieldFriends, repo.FieldEnemies} {
		users, err := s.Repo.SearchByField(ctx, f, id)
		if err != nil {
			helpers.LogWarn(s.Logger, "referrer lookup failed", err, logrus.Fields{"user_id": id, "field": f})
			continue
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func (s *Service) storeAvatar(ctx context.Context, userID string, up *Upload) (*entity.Avatar, error) {
	if s.Avatars == nil {
		if s.Logger != nil {
			s.Logger.WithField("filename", up.Filename).Warn("avatar ignored: storage not configured")
		}
		return nil, nil
	}
	r, err := up.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	path := avatarObjectPath(userID, up.Filename)
	url, err := s.Avatars.Put(ctx, path, up.ContentType, r)
	if err != nil {
		return nil, err
	}
	return &entity.Avatar{
		URL:         url,
		ObjectPath:  path,
		ContentType: up.ContentType,
		Size:        up.Size,
		Filename:    up.Filename,
	}, nil
}

func avatarObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if userID == "" {
		return filepath.ToSlash(filepath.Join("avatars", uuid.NewString()+ext))
	}
	return filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
}

func (s *Service) dropObject(ctx context.Context, path string) {
	if s.Avatars == nil || path == "" {
		return
	}
	if err := s.Avatars.Delete(ctx, path); err != nil {
		helpers.LogWarn(s.Logger, "avatar object delete failed", err, logrus.Fields{"object": path})
	}
}

func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ids...)
	}
}

func (s *Service) reindex(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, u); err != nil {
		helpers.LogWarn(s.Logger, "search index update failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) publishWelcome(ctx context.Context, u *entity.User) {
	if s.Events == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data:     map[string]any{"Name": u.Name, "Email": u.Email},
	}
	if err := s.Events.PublishJSON(ctx, job); err != nil {
		helpers.LogWarn(s.Logger, "welcome email enqueue failed", err, logrus.Fields{"user_id": u.ID})
	}
}
