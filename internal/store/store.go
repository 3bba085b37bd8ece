package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ward/internal/logging"
)

// Change is one committed value.
type Change struct {
	Key      string
	NewValue json.RawMessage
}

// Store is a SQLite-backed key-value store with a change feed.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// writeMu serializes commit and publish so subscribers see commit order.
	writeMu sync.Mutex
	seen    map[string]string

	subMu   sync.Mutex
	subs    map[int]*subscription
	nextSub int

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open initializes or connects to the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "store"),
		seen:   map[string]string{},
		subs:   map[int]*subscription{},
		closed: make(chan struct{}),
	}
	ctx := context.Background()
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	current, err := s.all(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for k, v := range current {
		s.seen[k] = string(v)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close stops the watcher and subscriptions and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.closeOnce.Do(func() { close(s.closed) })
	s.subMu.Lock()
	for id, sub := range s.subs {
		sub.close()
		delete(s.subs, id)
	}
	s.subMu.Unlock()
	s.wg.Wait()
	return s.db.Close()
}

// Get returns the stored values for keys. Missing keys are absent from the map.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (`+placeholders+`)`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return err
			}
			out[key] = json.RawMessage(value)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", strings.Join(keys, ","), err)
	}
	return out, nil
}

// Set writes every value in one transaction and publishes the changed keys.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	encoded := make(map[string]string, len(values))
	for k, v := range values {
		data, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		encoded[k] = data
	}
	keys := make([]string, 0, len(encoded))
	for k := range encoded {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
                 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				k, encoded[k], timestamp,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", strings.Join(keys, ","), err)
	}

	for _, k := range keys {
		s.seen[k] = encoded[k]
		s.publish(Change{Key: k, NewValue: json.RawMessage(encoded[k])})
	}
	return nil
}

// Rescan reads every stored value and publishes the keys whose value differs
// from the last one this process saw. It returns the number of changes.
func (s *Store) Rescan(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	changed := 0
	for _, k := range keys {
		value := string(current[k])
		if prev, ok := s.seen[k]; ok && prev == value {
			continue
		}
		s.seen[k] = value
		s.publish(Change{Key: k, NewValue: current[k]})
		changed++
	}
	return changed, nil
}

func (s *Store) all(ctx context.Context) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	err := retryOnBusy(ctx, func() error {
		clear(out)
		rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return err
			}
			out[key] = json.RawMessage(value)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("scan kv: %w", err)
	}
	return out, nil
}

func encodeValue(v any) (string, error) {
	switch typed := v.(type) {
	case json.RawMessage:
		if !json.Valid(typed) {
			return "", fmt.Errorf("invalid json")
		}
		return string(typed), nil
	case []byte:
		if !json.Valid(typed) {
			return "", fmt.Errorf("invalid json")
		}
		return string(typed), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
