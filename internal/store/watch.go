package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ward/internal/logging"
)

// DefaultWatchDebounce coalesces the burst of file events one commit produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watch observes the database directory for commits made by other processes
// and publishes the resulting changes. It returns once the watcher is
// registered; watching stops when ctx ends or the store is closed.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch data directory %s: %w", dir, err)
	}

	s.logger.Debug("store watcher started",
		logging.String("path", s.path),
		logging.String(logging.FieldEventType, "store_watch_started"),
	)

	trigger := make(chan struct{}, 1)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer watcher.Close()
		s.watchLoop(ctx, watcher, trigger)
	}()
	go func() {
		defer s.wg.Done()
		s.rescanLoop(ctx, trigger, debounce)
	}()
	return nil
}

// relevant reports whether a file event can indicate a commit. The -shm file
// is touched by readers too and is ignored.
func (s *Store) relevant(event fsnotify.Event) bool {
	base := filepath.Base(s.path)
	name := filepath.Base(event.Name)
	if name != base && name != base+"-wal" && name != base+"-journal" {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, trigger chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.relevant(event) {
				continue
			}
			select {
			case trigger <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(s.logger, "store watcher error", "store_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes from other processes may arrive late"),
			)
		}
	}
}

func (s *Store) rescanLoop(ctx context.Context, trigger <-chan struct{}, debounce time.Duration) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case <-trigger:
			timer.Reset(debounce)
		case <-timer.C:
			n, err := s.Rescan(ctx)
			if err != nil {
				if ctx.Err() != nil || strings.Contains(err.Error(), "database is closed") {
					return
				}
				logging.WarnWithContext(s.logger, "store rescan failed", "store_rescan_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check database file permissions"),
					logging.String(logging.FieldImpact, "external blocklist edits not applied until next change"),
				)
				continue
			}
			if n > 0 {
				s.logger.Debug("external changes detected",
					logging.Int("keys", n),
					logging.String(logging.FieldEventType, "store_external_change"),
				)
			}
		}
	}
}
