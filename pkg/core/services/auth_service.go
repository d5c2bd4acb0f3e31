package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/ports"
)

const minPasswordLength = 6

// AuthService implements registration and credential verification against
// the user repository. Passwords are stored bcrypt-hashed.
type AuthService struct {
	users ports.UserRepository
}

// NewAuthService creates an AuthService.
func NewAuthService(users ports.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates an account. The email must be well-formed and unused,
// the password at least six characters.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters",
			domain.ErrInvalidCredentials, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies email and password. Unknown email and wrong password both
// yield domain.ErrInvalidCredentials so the response does not reveal which
// part was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureUser returns the account for an externally authenticated email,
// provisioning one with an unguessable password placeholder on first
// sign-in. Used by the OAuth callback.
func (s *AuthService) EnsureUser(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	// Random placeholder so the account cannot be entered via password login.
	placeholder := make([]byte, 32)
	if _, err := rand.Read(placeholder); err != nil {
		return nil, fmt.Errorf("generate placeholder secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.StdEncoding.EncodeToString(placeholder)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder secret: %w", err)
	}

	user = &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			// Concurrent first sign-in, the other request won.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidCredentials)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", domain.ErrInvalidCredentials)
	}
	return nil
}
