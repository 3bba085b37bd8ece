package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpdateFunc receives the current value of a key (nil when absent) and
// returns the replacement. Returning write=false leaves the key untouched.
// It may run more than once when the database is busy.
type UpdateFunc = func(current json.RawMessage) (next json.RawMessage, write bool, err error)

// Update reads and rewrites key inside one immediate transaction, so
// concurrent read-modify-write cycles from this or another process never
// overwrite each other. It reports whether a value was written.
func (s *Store) Update(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var written string
	var wrote bool
	err := retryOnBusy(ctx, func() error {
		var err error
		written, wrote, err = s.updateOnce(ctx, key, fn)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("update %s: %w", key, err)
	}
	if !wrote {
		return false, nil
	}
	s.seen[key] = written
	s.publish(Change{Key: key, NewValue: json.RawMessage(written)})
	return true, nil
}

func (s *Store) updateOnce(ctx context.Context, key string, fn UpdateFunc) (string, bool, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return "", false, err
	}
	// IMMEDIATE takes the write lock before the read.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return "", false, err
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	var current json.RawMessage
	var value string
	switch err := conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", false, err
	default:
		current = json.RawMessage(value)
	}

	next, write, err := fn(current)
	if err != nil {
		return "", false, err
	}
	if !write {
		return "", false, nil
	}
	encoded, err := encodeValue(next)
	if err != nil {
		return "", false, fmt.Errorf("encode %s: %w", key, err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, encoded, timestamp,
	); err != nil {
		return "", false, err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return "", false, err
	}
	committed = true
	return encoded, true, nil
}
