// Package player defines the host UI contract the engine reads from and acts
// on, plus Remote, the Host implementation driven by the in-page companion
// through the host bridge.
package player

import "strings"

// NowPlaying is the metadata of the current item, read fresh per evaluation.
type NowPlaying struct {
	Title      string `json:"title"`
	ArtistLine string `json:"artist_line"`
}

// Valid reports whether both fields carry text.
func (n NowPlaying) Valid() bool {
	return strings.TrimSpace(n.Title) != "" && strings.TrimSpace(n.ArtistLine) != ""
}

// Host is the read and action surface of the player UI. Implementations must
// be safe for concurrent use; reads reflect the latest known UI state.
type Host interface {
	// NowPlaying returns the current item; ok is false when the player has
	// not rendered one yet.
	NowPlaying() (item NowPlaying, ok bool)
	// FeedbackControl reports whether the negative-feedback control exists
	// and whether it is currently pressed.
	FeedbackControl() (present, active bool)
	TriggerFeedback() error
	TriggerNext() error
	// Media reports whether a seekable media handle exists and has ended.
	Media() (present, ended bool)
	SeekToEnd() error
}

// Syncer is implemented by hosts whose state arrives asynchronously from the
// commands sent to them.
type Syncer interface {
	// Synced reports whether the latest state report was taken after every
	// queued command had been delivered.
	Synced() bool
}
