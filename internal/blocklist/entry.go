package blocklist

import (
	"errors"
	"fmt"
	"strings"

	"ward/internal/textutil"
)

// Storage keys shared with the store and the catalog.
const (
	KeyArtists  = "blockedArtists"
	KeyKeywords = "blockedKeywords"
	KeyTracks   = "blockedTracks"
	KeyRemote   = "aiBlocklist"
)

var (
	// ErrEmptyEntry is returned when a mutation carries no usable text.
	ErrEmptyEntry = errors.New("entry is empty")
	// ErrUnknownList is returned for list names outside artists, keywords, tracks.
	ErrUnknownList = errors.New("unknown blocklist")
)

// Kind tags the BlockEntry variant.
type Kind string

const (
	KindArtist  Kind = "artist"
	KindKeyword Kind = "keyword"
	KindTrack   Kind = "track"
)

// List names a user-editable list.
type List string

const (
	ListArtists  List = "artists"
	ListKeywords List = "keywords"
	ListTracks   List = "tracks"
)

// AllLists returns every user-editable list in display order.
func AllLists() []List {
	return []List{ListArtists, ListKeywords, ListTracks}
}

// ParseList accepts the list name as typed on the command line. Singular
// forms and the storage key are accepted too.
func ParseList(value string) (List, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "artists", "artist", strings.ToLower(KeyArtists):
		return ListArtists, nil
	case "keywords", "keyword", strings.ToLower(KeyKeywords):
		return ListKeywords, nil
	case "tracks", "track", "songs", "song", strings.ToLower(KeyTracks):
		return ListTracks, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownList, value)
	}
}

// Key returns the storage key backing the list.
func (l List) Key() string {
	switch l {
	case ListArtists:
		return KeyArtists
	case ListKeywords:
		return KeyKeywords
	case ListTracks:
		return KeyTracks
	default:
		return ""
	}
}

// Kind returns the entry variant stored in the list.
func (l List) Kind() Kind {
	switch l {
	case ListKeywords:
		return KindKeyword
	case ListTracks:
		return KindTrack
	default:
		return KindArtist
	}
}

// Track is a specific track, optionally scoped to an artist.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// Display renders the track the way list views show it.
func (t Track) Display() string {
	artist := t.Artist
	if strings.TrimSpace(artist) == "" {
		artist = "Unknown"
	}
	return artist + " - " + t.Title
}

// Entry is the tagged BlockEntry union. Value carries the artist or keyword
// text; Track is used when Kind is KindTrack.
type Entry struct {
	Kind  Kind
	Value string
	Track Track
}

// Artist builds an artist entry.
func Artist(name string) Entry { return Entry{Kind: KindArtist, Value: name} }

// Keyword builds a keyword entry.
func Keyword(text string) Entry { return Entry{Kind: KindKeyword, Value: text} }

// TrackEntry builds a track entry.
func TrackEntry(title, artist string) Entry {
	return Entry{Kind: KindTrack, Track: Track{Title: title, Artist: artist}}
}

// Clean trims whitespace from the payload and reports whether anything usable
// remains. Case is preserved; folding happens at aggregation time.
func (e Entry) Clean() (Entry, bool) {
	if e.Kind == KindTrack {
		e.Track.Title = textutil.Clean(e.Track.Title)
		e.Track.Artist = textutil.Clean(e.Track.Artist)
		return e, e.Track.Title != ""
	}
	e.Value = textutil.Clean(e.Value)
	return e, e.Value != ""
}

// Display renders the entry as shown in list output.
func (e Entry) Display() string {
	if e.Kind == KindTrack {
		return e.Track.Display()
	}
	return e.Value
}
