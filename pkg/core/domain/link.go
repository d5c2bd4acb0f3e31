package domain

import (
	"errors"
	"time"
)

// ShortLink is the persisted mapping from a short code to a long URL.
// Code and LongURL are immutable once created; Clicks is only ever mutated
// through LinkRepository.IncrementClicks.
type ShortLink struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	LongURL   string    `json:"long_url"`
	Owner     string    `json:"owner,omitempty"` // user ID when created by an authenticated requester
	CreatedAt time.Time `json:"created_at"`
	Clicks    int64     `json:"clicks"`
}

var (
	// ErrInvalidURL is returned when the long URL is empty, relative,
	// missing a protocol, or otherwise unparsable.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound is returned when a short code confirmedly does not exist.
	// Infrastructure faults during lookup are NOT ErrNotFound.
	ErrNotFound = errors.New("short link not found")

	// ErrCodeExists is returned by the store when an insert violates the
	// unique constraint on the code column.
	ErrCodeExists = errors.New("short code already exists")
)
