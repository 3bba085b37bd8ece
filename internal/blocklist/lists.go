package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"ward/internal/logging"
)

// Store is the slice of the key-value store the mutation service needs.
// Update must run fn and the write atomically with respect to other writers.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Update(ctx context.Context, key string, fn func(current json.RawMessage) (json.RawMessage, bool, error)) (bool, error)
}

// ChangeFunc is invoked after a list was persisted.
type ChangeFunc func(ctx context.Context, list List)

// Lists applies user mutations to the stored blocklists.
type Lists struct {
	store    Store
	logger   *slog.Logger
	onChange ChangeFunc
}

// NewLists constructs the mutation service. onChange may be nil.
func NewLists(store Store, logger *slog.Logger, onChange ChangeFunc) *Lists {
	return &Lists{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "blocklist"),
		onChange: onChange,
	}
}

// Add appends entry to list unless an equal entry already exists. Artists and
// keywords compare by exact trimmed text. Tracks compare by title only, so a
// second track with the same title and a different artist is a duplicate.
func (l *Lists) Add(ctx context.Context, list List, entry Entry) (bool, error) {
	if list.Key() == "" {
		return false, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	entry.Kind = list.Kind()
	entry, ok := entry.Clean()
	if !ok {
		return false, ErrEmptyEntry
	}

	var added json.RawMessage
	var err error
	if list == ListTracks {
		added, err = json.Marshal(entry.Track)
	} else {
		added, err = json.Marshal(entry.Value)
	}
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}

	wrote, err := l.store.Update(ctx, list.Key(), func(current json.RawMessage) (json.RawMessage, bool, error) {
		items := l.decode(list, current)
		for _, item := range items {
			if duplicateOf(list, item, entry) {
				return nil, false, nil
			}
		}
		return encodeItems(append(items, added))
	})
	if err != nil {
		return false, fmt.Errorf("persist %s: %w", list.Key(), err)
	}
	if !wrote {
		l.logger.Debug("blocklist add skipped; duplicate",
			logging.String("list", string(list)),
			logging.String("entry", entry.Display()),
			logging.String(logging.FieldEventType, "blocklist_duplicate"),
		)
		return false, nil
	}

	l.logger.Info("blocklist entry added",
		logging.String("list", string(list)),
		logging.String("entry", entry.Display()),
		logging.String(logging.FieldEventType, "blocklist_added"),
	)
	l.changed(ctx, list)
	return true, nil
}

// Remove deletes every entry of list whose display text equals display.
func (l *Lists) Remove(ctx context.Context, list List, display string) (bool, error) {
	if list.Key() == "" {
		return false, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	display = strings.TrimSpace(display)
	if display == "" {
		return false, ErrEmptyEntry
	}

	removed, err := l.store.Update(ctx, list.Key(), func(current json.RawMessage) (json.RawMessage, bool, error) {
		items := l.decode(list, current)
		kept := items[:0:0]
		for _, item := range items {
			if displayText(item) == display {
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) == len(items) {
			return nil, false, nil
		}
		return encodeItems(kept)
	})
	if err != nil {
		return false, fmt.Errorf("persist %s: %w", list.Key(), err)
	}
	if !removed {
		return false, nil
	}
	l.logger.Info("blocklist entry removed",
		logging.String("list", string(list)),
		logging.String("entry", display),
		logging.String(logging.FieldEventType, "blocklist_removed"),
	)
	l.changed(ctx, list)
	return true, nil
}

// List returns the entries of list sorted case-insensitively by display text.
func (l *Lists) List(ctx context.Context, list List) ([]Entry, error) {
	if list.Key() == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	values, err := l.store.Get(ctx, list.Key())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", list.Key(), err)
	}
	raw := values[list.Key()]

	var entries []Entry
	switch list {
	case ListTracks:
		for _, t := range DecodeTracks(raw) {
			entries = append(entries, Entry{Kind: KindTrack, Track: t})
		}
	default:
		for _, s := range DecodeStrings(raw) {
			entries = append(entries, Entry{Kind: list.Kind(), Value: s})
		}
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(strings.ToLower(a.Display()), strings.ToLower(b.Display()))
	})
	return entries, nil
}

// decode splits a stored list into raw items. A value that is not an array is
// treated as empty and replaced by the next write.
func (l *Lists) decode(list List, raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		logging.WarnWithContext(l.logger, "stored list is not an array; starting fresh", "blocklist_corrupt",
			logging.String("key", list.Key()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "existing entries in this list are replaced on next write"),
		)
		return nil
	}
	return items
}

func encodeItems(items []json.RawMessage) (json.RawMessage, bool, error) {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (l *Lists) changed(ctx context.Context, list List) {
	if l.onChange != nil {
		l.onChange(ctx, list)
	}
}

func duplicateOf(list List, item json.RawMessage, entry Entry) bool {
	if list == ListTracks {
		track, ok := decodeTrack(item)
		return ok && track.Title == entry.Track.Title
	}
	var s string
	return json.Unmarshal(item, &s) == nil && s == entry.Value
}

// displayText mirrors Entry.Display for a raw stored item.
func displayText(item json.RawMessage) string {
	var s string
	if json.Unmarshal(item, &s) == nil {
		return s
	}
	if track, ok := decodeTrack(item); ok {
		return track.Display()
	}
	return string(item)
}
