package application

import (
	"context"
	"io"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/infrastructure/search"
)

// ObjectStore persists uploaded avatar bytes.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// SearchIndex mirrors user profiles into a full-text index.
type SearchIndex interface {
	Put(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]search.Hit, error)
}

// UserCache is a read-through cache for single-user lookups. Implementations fail safe.
type UserCache interface {
	Get(ctx context.Context, id string) (*entity.User, bool)
	Set(ctx context.Context, u *entity.User)
	Invalidate(ctx context.Context, ids ...string)
}

// EventPublisher enqueues background jobs.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Upload is a single file lifted out of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}
