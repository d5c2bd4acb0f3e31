package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/snaplink/snaplink/pkg/cache"
	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/ports"
)

const maxURLLength = 2048

// Default budgets for the store round-trips. Every suspension point in the
// shorten/resolve paths is wrapped with one of these so a slow store cannot
// stall a request indefinitely.
const (
	defaultGenerateTimeout  = 2 * time.Second
	defaultPersistTimeout   = 5 * time.Second
	defaultLookupTimeout    = 3 * time.Second
	defaultIncrementTimeout = 5 * time.Second
)

// CodeGenerator is the slice of the short-code generator the service needs.
type CodeGenerator interface {
	Generate(ctx context.Context) string
}

// LinkService implements shortening and resolution. Both caches are views
// in front of the repository: the code cache keeps the redirect hot path
// off the store, the URL cache makes repeated shortens of the same URL
// idempotent within its TTL.
type LinkService struct {
	repo      ports.LinkRepository
	generator CodeGenerator
	codeCache *cache.Cache[string, string] // code -> long URL
	urlCache  *cache.Cache[string, string] // long URL -> code
	logger    *slog.Logger

	generateTimeout  time.Duration
	persistTimeout   time.Duration
	lookupTimeout    time.Duration
	incrementTimeout time.Duration
}

// LinkOption configures a LinkService.
type LinkOption func(*LinkService)

// WithGenerateTimeout sets the budget for one code generation.
func WithGenerateTimeout(d time.Duration) LinkOption {
	return func(s *LinkService) { s.generateTimeout = d }
}

// WithPersistTimeout sets the budget for the insert.
func WithPersistTimeout(d time.Duration) LinkOption {
	return func(s *LinkService) { s.persistTimeout = d }
}

// WithLookupTimeout sets the budget for resolve lookups.
func WithLookupTimeout(d time.Duration) LinkOption {
	return func(s *LinkService) { s.lookupTimeout = d }
}

// NewLinkService creates a LinkService. The caches are owned by the caller
// and injected here; there is no package-level state.
func NewLinkService(
	repo ports.LinkRepository,
	generator CodeGenerator,
	codeCache *cache.Cache[string, string],
	urlCache *cache.Cache[string, string],
	logger *slog.Logger,
	opts ...LinkOption,
) *LinkService {
	s := &LinkService{
		repo:             repo,
		generator:        generator,
		codeCache:        codeCache,
		urlCache:         urlCache,
		logger:           logger,
		generateTimeout:  defaultGenerateTimeout,
		persistTimeout:   defaultPersistTimeout,
		lookupTimeout:    defaultLookupTimeout,
		incrementTimeout: defaultIncrementTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shorten validates longURL, allocates a code and persists the mapping.
// Owner is the requester's user ID, empty for anonymous requests.
//
// Shortening is idempotent only within the URL cache's TTL: after expiry the
// same URL may be assigned a second, different code. That is intentional.
func (s *LinkService) Shorten(ctx context.Context, longURL, owner string) (*domain.ShortLink, error) {
	if err := validateURL(longURL); err != nil {
		return nil, err
	}

	if code, ok := s.urlCache.Get(longURL); ok {
		return &domain.ShortLink{Code: code, LongURL: longURL}, nil
	}

	code, err := s.generate(ctx)
	if err != nil {
		return nil, err
	}

	link := &domain.ShortLink{
		Code:      code,
		LongURL:   longURL,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	err = s.insert(ctx, link)
	if errors.Is(err, domain.ErrCodeExists) {
		// Lost the pre-check race. The odds are negligible but not zero,
		// so retry generation exactly once before failing the request.
		s.logger.Warn("duplicate code on insert, regenerating", "code", link.Code)
		link.Code, err = s.generate(ctx)
		if err != nil {
			return nil, err
		}
		err = s.insert(ctx, link)
	}
	if err != nil {
		return nil, fmt.Errorf("save link: %w", err)
	}

	s.urlCache.Set(longURL, link.Code)
	return link, nil
}

// Resolve returns the long URL for code. A cache hit never touches the
// store. On a store hit the click counter is incremented fire-and-forget:
// its outcome never affects or delays the returned URL.
//
// A confirmed absence is domain.ErrNotFound; an infrastructure fault is a
// different error so callers answer 404 only when the code truly does not
// exist.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	if longURL, ok := s.codeCache.Get(code); ok {
		return longURL, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	link, err := s.repo.GetByCode(lookupCtx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("load link: %w", err)
	}

	s.trackClick(code)

	s.codeCache.Set(code, link.LongURL)
	return link.LongURL, nil
}

// Stats returns the stored record for code.
func (s *LinkService) Stats(ctx context.Context, code string) (*domain.ShortLink, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	link, err := s.repo.GetByCode(lookupCtx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load link: %w", err)
	}
	return link, nil
}

// ListByOwner returns the links created by the given user, newest first.
func (s *LinkService) ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	links, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// generate runs the generator under its own budget. The generator itself
// never fails, so the only error here is the timeout.
func (s *LinkService) generate(ctx context.Context) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	codeCh := make(chan string, 1)
	go func() { codeCh <- s.generator.Generate(genCtx) }()

	select {
	case code := <-codeCh:
		return code, nil
	case <-genCtx.Done():
		return "", fmt.Errorf("generate short code: %w", genCtx.Err())
	}
}

func (s *LinkService) insert(ctx context.Context, link *domain.ShortLink) error {
	insertCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	return s.repo.Create(insertCtx, link)
}

// trackClick increments the click counter in a detached goroutine. It uses
// a background context so the increment survives the request's cancellation,
// bounded by its own timeout. Failures are logged and swallowed.
func (s *LinkService) trackClick(code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.incrementTimeout)
		defer cancel()
		if err := s.repo.IncrementClicks(ctx, code); err != nil {
			s.logger.Error("increment clicks failed", "code", code, "error", err)
		}
	}()
}

// validateURL accepts absolute, protocol-qualified http(s) URLs only.
func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidURL)
	}
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: url exceeds %d characters", domain.ErrInvalidURL, maxURLLength)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: unparsable url", domain.ErrInvalidURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: url must include the http:// or https:// protocol", domain.ErrInvalidURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: url must have a host", domain.ErrInvalidURL)
	}
	return nil
}
