package deletion

import (
	"context"
	"time"

	domain "churchconsole/internal/domain/deletion"
)

// Store defines the interface for deletion confirmation persistence.
type Store interface {
	// GetByID retrieves a request belonging to one console session.
	// PRE: id and sessionKey are non-empty
	// POST: Returns domain.ErrNotFound if absent
	GetByID(ctx context.Context, sessionKey, id string) (domain.Request, error)

	// Save persists a request (insert or update).
	// PRE: r has been validated
	Save(ctx context.Context, sessionKey string, r domain.Request) error

	// ListOpen returns the session's pending and in-flight requests, newest first.
	ListOpen(ctx context.Context, sessionKey string) ([]domain.Request, error)

	// ExpireStale marks open requests whose window closed before now as expired.
	// POST: Returns the number of requests expired
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
