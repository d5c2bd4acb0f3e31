// Package shortcode generates collision-resistant short codes.
//
// The store lookup here is a race-tolerant pre-check, not a lock: it only
// reduces collision probability. True uniqueness is enforced by the store's
// unique constraint at insert time, and the service layer handles the rare
// duplicate-key rejection.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/snaplink/snaplink/pkg/core/domain"
)

// Codes use the dense lowercase base-36 alphabet so they stay URL-path-safe
// without escaping.
const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const (
	DefaultLength        = 6
	DefaultMaxAttempts   = 5
	DefaultLookupTimeout = time.Second
)

// CodeChecker is the slice of the link store the generator needs: an
// occupancy probe for a candidate code.
type CodeChecker interface {
	GetByCode(ctx context.Context, code string) (*domain.ShortLink, error)
}

// Generator produces short codes, probing the store for occupancy before
// handing one out.
type Generator struct {
	checker       CodeChecker
	length        int
	maxAttempts   int
	lookupTimeout time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithLength sets the candidate code length.
func WithLength(n int) Option { return func(g *Generator) { g.length = n } }

// WithMaxAttempts sets the pre-check attempt budget.
func WithMaxAttempts(n int) Option { return func(g *Generator) { g.maxAttempts = n } }

// WithLookupTimeout sets the per-attempt store probe budget.
func WithLookupTimeout(d time.Duration) Option { return func(g *Generator) { g.lookupTimeout = d } }

// NewGenerator creates a Generator probing occupancy via checker.
func NewGenerator(checker CodeChecker, opts ...Option) *Generator {
	g := &Generator{
		checker:       checker,
		length:        DefaultLength,
		maxAttempts:   DefaultMaxAttempts,
		lookupTimeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a short code. It never fails: after the attempt budget is
// exhausted it falls back to a timestamp-suffixed code whose collision odds
// are negligible without another store round-trip.
//
// A probe that times out or errors race-accepts the candidate: the code is
// handed out as if free and the store's unique constraint is the final
// arbiter at insert time.
func (g *Generator) Generate(ctx context.Context) string {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code := randomCode(g.length)

		probeCtx, cancel := context.WithTimeout(ctx, g.lookupTimeout)
		existing, err := g.checker.GetByCode(probeCtx, code)
		cancel()

		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return code // confirmed free
			}
			return code // probe failed, race-accept
		}
		if existing == nil {
			return code
		}
		// Occupied, try the next candidate.
	}

	// Repeated collisions: short random prefix plus the tail of the base-36
	// millisecond timestamp.
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}
	return randomCode(4) + ts
}

// randomCode draws n characters uniformly from the alphabet.
func randomCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand reading from the OS source does not fail in practice.
			panic("shortcode: crypto/rand failed: " + err.Error())
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
