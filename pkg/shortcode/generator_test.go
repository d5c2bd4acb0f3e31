package shortcode_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/shortcode"
)

// fakeChecker scripts the store pre-check responses.
type fakeChecker struct {
	calls     int
	responses []checkResponse
}

type checkResponse struct {
	link *domain.ShortLink
	err  error
}

func (f *fakeChecker) GetByCode(_ context.Context, code string) (*domain.ShortLink, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.responses) {
		r := f.responses[f.calls]
		return r.link, r.err
	}
	return nil, domain.ErrNotFound
}

// slowChecker blocks until the probe context is cancelled.
type slowChecker struct{}

func (slowChecker) GetByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var codePattern = regexp.MustCompile(`^[a-z0-9]+$`)

func TestGenerate_FreeOnFirstAttempt(t *testing.T) {
	checker := &fakeChecker{}
	gen := shortcode.NewGenerator(checker)

	code := gen.Generate(context.Background())

	assert.Len(t, code, 6)
	assert.Regexp(t, codePattern, code)
	assert.Equal(t, 1, checker.calls)
}

func TestGenerate_RetriesOnOccupiedCode(t *testing.T) {
	taken := &domain.ShortLink{Code: "taken1"}
	checker := &fakeChecker{responses: []checkResponse{
		{link: taken}, {link: taken},
	}}
	gen := shortcode.NewGenerator(checker)

	code := gen.Generate(context.Background())

	assert.Len(t, code, 6)
	assert.Equal(t, 3, checker.calls, "two occupied probes then a free one")
}

func TestGenerate_FallbackAfterExhaustedAttempts(t *testing.T) {
	taken := &domain.ShortLink{Code: "taken1"}
	checker := &fakeChecker{responses: []checkResponse{
		{link: taken}, {link: taken}, {link: taken}, {link: taken}, {link: taken},
	}}
	gen := shortcode.NewGenerator(checker)

	code := gen.Generate(context.Background())

	require.Len(t, code, 8, "fallback is 4 random chars + 4 timestamp chars")
	assert.Regexp(t, codePattern, code)
	assert.Equal(t, 5, checker.calls, "attempt budget is bounded")
}

func TestGenerate_RaceAcceptsOnStoreError(t *testing.T) {
	checker := &fakeChecker{responses: []checkResponse{
		{err: errors.New("connection refused")},
	}}
	gen := shortcode.NewGenerator(checker)

	code := gen.Generate(context.Background())

	assert.Len(t, code, 6)
	assert.Equal(t, 1, checker.calls, "a failed probe accepts the candidate, no retry")
}

func TestGenerate_RaceAcceptsOnTimeout(t *testing.T) {
	gen := shortcode.NewGenerator(slowChecker{}, shortcode.WithLookupTimeout(10*time.Millisecond))

	start := time.Now()
	code := gen.Generate(context.Background())

	assert.Len(t, code, 6)
	assert.Less(t, time.Since(start), time.Second, "slow store must not stall generation")
}

func TestGenerate_DistinctCodes(t *testing.T) {
	gen := shortcode.NewGenerator(&fakeChecker{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[gen.Generate(context.Background())] = true
	}
	assert.Greater(t, len(seen), 99, "100 draws from a 36^6 space should not collide")
}
