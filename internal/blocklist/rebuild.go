package blocklist

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"ward/internal/textutil"
)

// Rebuild folds, deduplicates, and sorts every source into a new snapshot.
// remoteRaw is the cached catalog payload; any shape ParseRemote does not
// recognize contributes nothing. Rebuild never fails.
func Rebuild(localArtists, localKeywords []string, localTracks []Track, remoteRaw []byte) *Snapshot {
	return &Snapshot{
		ManualArtists: foldSet(localArtists),
		Keywords:      foldSet(localKeywords),
		Tracks:        foldTracks(localTracks),
		RemoteArtists: foldSet(ParseRemote(remoteRaw)),
	}
}

// StorageKeys lists every store key a snapshot is built from.
func StorageKeys() []string {
	return []string{KeyArtists, KeyKeywords, KeyTracks, KeyRemote}
}

// RebuildFromValues decodes raw store values keyed by the storage keys and
// rebuilds the snapshot. Malformed values are treated as empty lists.
func RebuildFromValues(values map[string]json.RawMessage, now time.Time) *Snapshot {
	snap := Rebuild(
		DecodeStrings(values[KeyArtists]),
		DecodeStrings(values[KeyKeywords]),
		DecodeTracks(values[KeyTracks]),
		values[KeyRemote],
	)
	snap.BuiltAt = now
	return snap
}

// DecodeStrings reads a stored list, skipping anything that is not a string.
func DecodeStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// DecodeTracks reads the stored track list. Each item may be a bare title
// string or a {title, artist} object; objects without a title are dropped.
func DecodeTracks(raw json.RawMessage) []Track {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]Track, 0, len(items))
	for _, item := range items {
		if track, ok := decodeTrack(item); ok {
			out = append(out, track)
		}
	}
	return out
}

func decodeTrack(item json.RawMessage) (Track, bool) {
	var title string
	if json.Unmarshal(item, &title) == nil {
		return Track{Title: title}, strings.TrimSpace(title) != ""
	}
	var obj struct {
		Title  any `json:"title"`
		Artist any `json:"artist"`
	}
	if json.Unmarshal(item, &obj) != nil {
		return Track{}, false
	}
	t, ok := obj.Title.(string)
	if !ok || strings.TrimSpace(t) == "" {
		return Track{}, false
	}
	a, _ := obj.Artist.(string)
	return Track{Title: t, Artist: a}, true
}

func foldSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		folded := textutil.Fold(v)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	slices.Sort(out)
	return out
}

func foldTracks(tracks []Track) []Track {
	seen := make(map[Track]struct{}, len(tracks))
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		folded := Track{Title: textutil.Fold(t.Title), Artist: textutil.Fold(t.Artist)}
		if folded.Title == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	slices.SortFunc(out, func(a, b Track) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.Artist, b.Artist)
	})
	return out
}
