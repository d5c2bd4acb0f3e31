package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/adapters/repository/sqlite"
)

var dbSeq int

func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	dbSeq++
	// Shared-cache memory DB so the repo's pool sees one database.
	repo, err := sqlite.New(fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newLink(code string) *domain.ShortLink {
	return &domain.ShortLink{
		Code:      code,
		LongURL:   "https://example.com/" + code,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetByCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	link := newLink("abc123")
	link.Owner = "user-1"
	require.NoError(t, repo.Create(ctx, link))
	assert.NotZero(t, link.ID)

	got, err := repo.GetByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.LongURL, got.LongURL)
	assert.Equal(t, "user-1", got.Owner)
	assert.Equal(t, int64(0), got.Clicks)
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newLink("dup111")))

	err := repo.Create(ctx, newLink("dup111"))
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestGetByCode_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByLongURL(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	link := newLink("rev111")
	require.NoError(t, repo.Create(ctx, link))

	got, err := repo.GetByLongURL(ctx, link.LongURL)
	require.NoError(t, err)
	assert.Equal(t, "rev111", got.Code)

	_, err = repo.GetByLongURL(ctx, "https://unknown.example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrementClicks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newLink("clk111")))

	require.NoError(t, repo.IncrementClicks(ctx, "clk111"))
	require.NoError(t, repo.IncrementClicks(ctx, "clk111"))

	got, err := repo.GetByCode(ctx, "clk111")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Clicks)

	err = repo.IncrementClicks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		link := newLink(fmt.Sprintf("own%03d", i))
		link.Owner = "user-1"
		link.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute).Truncate(time.Second)
		require.NoError(t, repo.Create(ctx, link))
	}
	other := newLink("other1")
	other.Owner = "user-2"
	require.NoError(t, repo.Create(ctx, other))

	links, err := repo.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "own002", links[0].Code, "newest first")
}

func TestDeleteExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := newLink("old111")
	old.CreatedAt = time.Now().UTC().Add(-91 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, newLink("new111")))

	n, err := repo.DeleteExpired(ctx, time.Now().UTC().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByCode(ctx, "old111")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByCode(ctx, "new111")
	assert.NoError(t, err)
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	users := repo.Users()
	ctx := context.Background()

	user := &domain.User{
		ID:           "id-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, users.Create(ctx, user))

	got, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)

	dup := *user
	dup.ID = "id-2"
	err = users.Create(ctx, &dup)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
