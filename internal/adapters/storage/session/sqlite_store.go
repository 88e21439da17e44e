package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"churchconsole/internal/adapters/identity"
	"churchconsole/internal/adapters/storage"
	"churchconsole/internal/domain/account"
)

const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps console session tokens so operators stay signed in
// across restarts. It implements identity.TokenStore.
type SQLiteStore struct {
	db  storage.SQLDB
	Now func() time.Time
}

var _ identity.TokenStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, Now: time.Now}
}

// Load returns identity.ErrNoTokens when the key is unknown.
func (s *SQLiteStore) Load(ctx context.Context, key string) (account.TokenPair, error) {
	var pair account.TokenPair
	err := s.db.QueryRowContext(ctx,
		`SELECT access, refresh FROM console_session WHERE key = ?`, key).Scan(&pair.Access, &pair.Refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return account.TokenPair{}, identity.ErrNoTokens
	}
	return pair, err
}

// Save upserts the pair for key.
func (s *SQLiteStore) Save(ctx context.Context, key string, pair account.TokenPair) error {
	now := s.Now().UTC().Format(dateLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO console_session (key, access, refresh, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   access=excluded.access,
		   refresh=excluded.refresh,
		   updated_at=excluded.updated_at`,
		key, pair.Access, pair.Refresh, now, now)
	return err
}

// Delete removes key. Deleting an unknown key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM console_session WHERE key = ?`, key)
	return err
}

// PurgeOlderThan drops sessions not updated since cutoff.
// POST: Returns the number of sessions removed
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM console_session WHERE updated_at < ?`, cutoff.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
