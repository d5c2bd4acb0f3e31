package ports

import (
	"context"
	"time"

	"github.com/snaplink/snaplink/pkg/core/domain"
)

// LinkRepository defines storage operations for short links. The store is
// the single source of truth for code uniqueness: Create must enforce a
// unique constraint on the code column and report violations as
// domain.ErrCodeExists.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.ShortLink) error
	GetByCode(ctx context.Context, code string) (*domain.ShortLink, error)
	GetByLongURL(ctx context.Context, longURL string) (*domain.ShortLink, error)

	// IncrementClicks performs an atomic clicks+1. Callers on the redirect
	// path invoke it fire-and-forget; errors are logged only.
	IncrementClicks(ctx context.Context, code string) error

	ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error)

	// DeleteExpired removes links created before the given time, returning
	// the number removed. Implements the retention policy.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	Dump(ctx context.Context) ([]domain.ShortLink, error) // for export tooling
}

// UserRepository defines storage operations for accounts. Create must
// enforce a unique constraint on email and report violations as
// domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LinkService defines the business logic consumed by the HTTP and CLI
// adapters.
type LinkService interface {
	Shorten(ctx context.Context, longURL, owner string) (*domain.ShortLink, error)
	Resolve(ctx context.Context, code string) (string, error)
	Stats(ctx context.Context, code string) (*domain.ShortLink, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error)
}

// AuthService defines account registration and credential verification.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	// EnsureUser provisions an account for an externally authenticated
	// identity (OAuth) if one does not exist yet.
	EnsureUser(ctx context.Context, email string) (*domain.User, error)
}
