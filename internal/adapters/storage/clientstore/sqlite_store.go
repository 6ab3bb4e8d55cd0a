package clientstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"edtpro/internal/adapters/storage"
)

// SQLiteStore implements Store using the client_item table.
type SQLiteStore struct {
	db  storage.SQLDB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore creates a SQLite-backed store.
// PRE: db has been migrated with storage.MigrateDB
func NewSQLiteStore(db storage.SQLDB, ttl time.Duration) *SQLiteStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}
}

// GetItem retrieves a live item.
// POST: Returns ok=false for missing or expired items
func (s *SQLiteStore) GetItem(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := checkArgs(namespace); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM client_item WHERE namespace = ? AND item_key = ? AND expires_at > ?",
		namespace, key, s.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("client item %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem upserts an item.
// POST: Item is persisted with a fresh expiry
func (s *SQLiteStore) SetItem(ctx context.Context, namespace, key, value string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_item (namespace, item_key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, item_key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`,
		namespace, key, value, s.now().Add(s.ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save client item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes an item.
// POST: Item with given key no longer exists
func (s *SQLiteStore) RemoveItem(ctx context.Context, namespace, key string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM client_item WHERE namespace = ? AND item_key = ?", namespace, key); err != nil {
		return fmt.Errorf("delete client item %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes expired items and returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM client_item WHERE expires_at <= ?", s.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
