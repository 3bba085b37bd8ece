package daemon

import (
	"context"
	"fmt"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/match"
	"ward/internal/player"
)

// BlockCurrent adds the current item to list and forces an intervention on
// it. Artists are stored as the lead artist of the byline; tracks as the
// title with the primary artist segment.
//
// The current item is re-evaluated even when the entry was already stored
// (added is false). If an earlier intervention on the same item has already
// finished, that evaluation starts a second one, so repeated calls skip the
// item again instead of being no-ops.
func (d *Daemon) BlockCurrent(ctx context.Context, list blocklist.List) (blocklist.Entry, bool, error) {
	item, ok := d.remote.NowPlaying()
	if !ok {
		return blocklist.Entry{}, false, blocklist.ErrEmptyEntry
	}
	entry, err := entryForCurrent(list, item)
	if err != nil {
		return blocklist.Entry{}, false, err
	}
	added, err := d.lists.Add(ctx, list, entry)
	if err != nil {
		return blocklist.Entry{}, false, err
	}
	d.logger.Info("blocked current item",
		logging.String("list", string(list)),
		logging.String("entry", entry.Display()),
		logging.Bool("added", added),
		logging.String(logging.FieldEventType, "block_current"),
	)
	if !added {
		// The entry was already stored; the snapshot is unchanged, so ask
		// for the evaluation explicitly.
		d.monitor.Reevaluate()
	}
	return entry, added, nil
}

func entryForCurrent(list blocklist.List, item player.NowPlaying) (blocklist.Entry, error) {
	switch list {
	case blocklist.ListArtists:
		return blocklist.Artist(match.LeadArtist(item.ArtistLine)), nil
	case blocklist.ListTracks:
		return blocklist.TrackEntry(item.Title, match.PrimaryArtist(item.ArtistLine)), nil
	default:
		return blocklist.Entry{}, fmt.Errorf("%w: %q cannot be filled from the current item", blocklist.ErrUnknownList, list)
	}
}

// onListChanged runs after the mutation service persisted a list.
func (d *Daemon) onListChanged(ctx context.Context, list blocklist.List) {
	if _, err := d.rebuild(ctx, "list_"+string(list)); err != nil {
		logging.WarnWithContext(d.logger, "snapshot rebuild after list change failed", "snapshot_rebuild_failed",
			logging.String("list", string(list)),
			logging.Error(err),
		)
		return
	}
	d.monitor.Reevaluate()
}
