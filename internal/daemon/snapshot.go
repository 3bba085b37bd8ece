package daemon

import (
	"context"
	"slices"
	"time"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/store"
)

// applyChanges rebuilds the snapshot for every relevant store change. Changes
// that arrive while a rebuild runs are coalesced into the next one.
func (d *Daemon) applyChanges(ctx context.Context, changes <-chan store.Change) {
	for change := range changes {
		if !isSnapshotKey(change.Key) {
			continue
		}
		keys := []string{change.Key}
	drain:
		for {
			select {
			case next, ok := <-changes:
				if !ok {
					break drain
				}
				if isSnapshotKey(next.Key) {
					keys = append(keys, next.Key)
				}
			default:
				break drain
			}
		}
		if ctx.Err() != nil {
			return
		}
		if _, err := d.rebuild(ctx, "store_change"); err != nil {
			logging.WarnWithContext(d.logger, "snapshot rebuild failed", "snapshot_rebuild_failed",
				logging.Any("keys", keys),
				logging.Error(err),
				logging.String(logging.FieldImpact, "matching keeps using the previous snapshot"),
			)
		}
	}
}

// rebuild reads every source from the store and installs a fresh snapshot
// when its content differs from the active one. A swap clears the monitor's
// processed marker so the current item is evaluated again.
func (d *Daemon) rebuild(ctx context.Context, reason string) (bool, error) {
	d.rebuildMu.Lock()
	defer d.rebuildMu.Unlock()

	values, err := d.store.Get(ctx, blocklist.StorageKeys()...)
	if err != nil {
		return false, err
	}
	next := blocklist.RebuildFromValues(values, time.Now())
	if reason != "startup" && d.holder.Load().Equal(next) {
		return false, nil
	}
	d.holder.Swap(next)
	d.recorder.SetSnapshotSize(next.Size())
	d.logger.Info("blocklist snapshot rebuilt",
		logging.String("reason", reason),
		logging.Int("manual_artists", len(next.ManualArtists)),
		logging.Int("keywords", len(next.Keywords)),
		logging.Int("tracks", len(next.Tracks)),
		logging.Int("remote_artists", len(next.RemoteArtists)),
		logging.String(logging.FieldEventType, "snapshot_rebuilt"),
	)
	d.monitor.SnapshotChanged()
	return true, nil
}

func isSnapshotKey(key string) bool {
	return slices.Contains(blocklist.StorageKeys(), key)
}
