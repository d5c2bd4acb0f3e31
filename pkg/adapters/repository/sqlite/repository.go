// Package sqlite implements the link and user repositories on SQLite, the
// authoritative store. The UNIQUE constraints on links.code and users.email
// are the real uniqueness guarantees the rest of the system relies on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // remote libsql driver
	_ "modernc.org/sqlite"                               // local SQLite driver

	"github.com/snaplink/snaplink/pkg/core/domain"
)

// Repository implements ports.LinkRepository and ports.UserRepository.
type Repository struct {
	db *sql.DB
}

// New opens dbURL, picking the libsql driver for remote URLs and the local
// modernc driver otherwise, and applies the schema.
func New(dbURL string) (*Repository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		long_url TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_links_code ON links(code);
	CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`
	_, err := db.Exec(query)
	return err
}

// isUniqueViolation matches the constraint error text of both drivers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// Create inserts a new link. A duplicate code is reported as
// domain.ErrCodeExists so the service layer can retry generation.
func (r *Repository) Create(ctx context.Context, link *domain.ShortLink) error {
	query := `INSERT INTO links (code, long_url, owner, created_at, clicks)
	          VALUES (?, ?, ?, ?, 0)`

	res, err := r.db.ExecContext(ctx, query, link.Code, link.LongURL, link.Owner, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeExists
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

// GetByCode retrieves a link by its short code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	query := `SELECT id, code, long_url, owner, created_at, clicks
	          FROM links WHERE code = ?`
	return r.scanLink(r.db.QueryRowContext(ctx, query, code))
}

// GetByLongURL retrieves the most recent link for a long URL.
func (r *Repository) GetByLongURL(ctx context.Context, longURL string) (*domain.ShortLink, error) {
	query := `SELECT id, code, long_url, owner, created_at, clicks
	          FROM links WHERE long_url = ? ORDER BY created_at DESC LIMIT 1`
	return r.scanLink(r.db.QueryRowContext(ctx, query, longURL))
}

func (r *Repository) scanLink(row *sql.Row) (*domain.ShortLink, error) {
	var link domain.ShortLink
	err := row.Scan(&link.ID, &link.Code, &link.LongURL, &link.Owner, &link.CreatedAt, &link.Clicks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// IncrementClicks performs the atomic clicks+1 in the database. The counter
// is never read-modify-written by callers.
func (r *Repository) IncrementClicks(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET clicks = clicks + 1 WHERE code = ?`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns the owner's links, newest first.
func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	query := `SELECT id, code, long_url, owner, created_at, clicks
	          FROM links WHERE owner = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLinks(rows)
}

// DeleteExpired enforces the retention policy: every link created before
// the cutoff is removed.
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Dump returns every link, oldest first. Used by the export tooling.
func (r *Repository) Dump(ctx context.Context) ([]domain.ShortLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, long_url, owner, created_at, clicks FROM links ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLinks(rows)
}

func collectLinks(rows *sql.Rows) ([]domain.ShortLink, error) {
	var links []domain.ShortLink
	for rows.Next() {
		var link domain.ShortLink
		if err := rows.Scan(&link.ID, &link.Code, &link.LongURL, &link.Owner,
			&link.CreatedAt, &link.Clicks); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CreateUser inserts a new account. Named differently from Create because
// one Repository serves both ports; the users wrapper below restores the
// interface shape.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

// GetUserByEmail retrieves an account by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Users exposes the repository as a ports.UserRepository.
func (r *Repository) Users() *UserRepository {
	return &UserRepository{repo: r}
}

// UserRepository adapts Repository to the ports.UserRepository method set.
type UserRepository struct {
	repo *Repository
}

func (u *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return u.repo.CreateUser(ctx, user)
}

func (u *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.repo.GetUserByEmail(ctx, email)
}
