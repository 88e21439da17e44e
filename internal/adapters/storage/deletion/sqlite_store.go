package deletion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"churchconsole/internal/adapters/storage"
	domain "churchconsole/internal/domain/deletion"
)

const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, target, target_id, label, status, requested_at, expires_at, last_error FROM deletion_request`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new deletion request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID implements Store.
func (s *SQLiteStore) GetByID(ctx context.Context, sessionKey, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND session_key = ?`, id, sessionKey)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Request{}, domain.ErrNotFound
	}
	return r, err
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, sessionKey string, r domain.Request) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deletion_request (id, session_key, target, target_id, label, status, requested_at, expires_at, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status,
		   last_error=excluded.last_error`,
		r.ID, sessionKey, r.Target, r.TargetID, r.Label, r.Status,
		r.RequestedAt.UTC().Format(dateLayout), r.ExpiresAt.UTC().Format(dateLayout), r.LastError)
	return err
}

// ListOpen implements Store.
func (s *SQLiteStore) ListOpen(ctx context.Context, sessionKey string) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE session_key = ? AND status IN (?, ?) ORDER BY requested_at DESC`,
		sessionKey, domain.StatusPending, domain.StatusInFlight)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ExpireStale implements Store.
func (s *SQLiteStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE deletion_request SET status = ? WHERE status IN (?, ?) AND expires_at <= ?`,
		domain.StatusExpired, domain.StatusPending, domain.StatusInFlight, now.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (domain.Request, error) {
	var r domain.Request
	var requestedAt, expiresAt string
	if err := row.Scan(&r.ID, &r.Target, &r.TargetID, &r.Label, &r.Status, &requestedAt, &expiresAt, &r.LastError); err != nil {
		return domain.Request{}, err
	}
	r.RequestedAt, _ = time.Parse(dateLayout, requestedAt)
	r.ExpiresAt, _ = time.Parse(dateLayout, expiresAt)
	return r, nil
}
