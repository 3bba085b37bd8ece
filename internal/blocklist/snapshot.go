package blocklist

import (
	"slices"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable, fully merged view of every blocklist source.
// All strings are folded. Each set is sorted and free of duplicates; the same
// name may appear in several sets.
type Snapshot struct {
	ManualArtists []string
	Keywords      []string
	Tracks        []Track
	RemoteArtists []string
	BuiltAt       time.Time
}

// Empty reports whether the snapshot can match anything.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.ManualArtists)+len(s.Keywords)+len(s.Tracks)+len(s.RemoteArtists) == 0
}

// Size returns the total number of entries across all sets.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.ManualArtists) + len(s.Keywords) + len(s.Tracks) + len(s.RemoteArtists)
}

// Holder publishes the active snapshot. Store replaces it wholesale; Load
// never observes a partially built value.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a holder primed with an empty snapshot.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(&Snapshot{})
	return h
}

// Load returns the active snapshot. It is never nil.
func (h *Holder) Load() *Snapshot {
	if snap := h.current.Load(); snap != nil {
		return snap
	}
	return &Snapshot{}
}

// Swap installs snap and returns the previous snapshot.
func (h *Holder) Swap(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = &Snapshot{}
	}
	return h.current.Swap(snap)
}

// Equal reports whether both snapshots hold the same entries. BuiltAt is
// ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s.Empty() && o.Empty()
	}
	return slices.Equal(s.ManualArtists, o.ManualArtists) &&
		slices.Equal(s.Keywords, o.Keywords) &&
		slices.Equal(s.Tracks, o.Tracks) &&
		slices.Equal(s.RemoteArtists, o.RemoteArtists)
}
