package player

import (
	"sync"
	"time"
)

// Command is an action queued for the in-page companion.
type Command string

const (
	CommandFeedback Command = "feedback"
	CommandNext     Command = "next"
	CommandSeekEnd  Command = "seek_end"
)

// State is the player UI state reported by the companion.
type State struct {
	Title           string `json:"title"`
	ArtistLine      string `json:"artist_line"`
	FeedbackPresent bool   `json:"feedback_present"`
	FeedbackActive  bool   `json:"feedback_active"`
	MediaPresent    bool   `json:"media_present"`
	MediaEnded      bool   `json:"media_ended"`
}

const maxPendingCommands = 32

// Remote is a Host whose state is pushed by the companion and whose actions
// are queued until the companion drains them.
type Remote struct {
	mu      sync.Mutex
	state   State
	seen    bool
	updated time.Time
	pending []Command
	// revision counts state reports; delivered is the revision at which
	// commands were last handed to the companion.
	revision  uint64
	delivered uint64
	notify  func()
	dropped int
}

// NewRemote returns an empty remote host. onChange, when non-nil, is called
// after every Update that changes the reported state.
func NewRemote(onChange func()) *Remote {
	return &Remote{notify: onChange}
}

// SetOnChange replaces the change callback.
func (r *Remote) SetOnChange(fn func()) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// Update records a new state snapshot from the companion. It reports whether
// anything differed from the previous snapshot.
func (r *Remote) Update(state State) bool {
	r.mu.Lock()
	changed := !r.seen || r.state != state
	r.state = state
	r.seen = true
	r.updated = time.Now()
	r.revision++
	notify := r.notify
	r.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
	return changed
}

// Snapshot returns the last reported state and when it arrived.
func (r *Remote) Snapshot() (State, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.updated, r.seen
}

// Drain returns and clears the queued commands.
func (r *Remote) Drain() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	if len(out) > 0 {
		r.delivered = r.revision
	}
	return out
}

// Synced is false while commands are queued or until the companion reports
// again after receiving them.
func (r *Remote) Synced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) == 0 && r.revision > r.delivered
}

// Dropped returns how many commands were discarded because the queue was full.
func (r *Remote) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Remote) NowPlaying() (NowPlaying, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := NowPlaying{Title: r.state.Title, ArtistLine: r.state.ArtistLine}
	return item, r.seen && item.Valid()
}

func (r *Remote) FeedbackControl() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.FeedbackPresent, r.state.FeedbackActive
}

func (r *Remote) Media() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.MediaPresent, r.state.MediaEnded
}

func (r *Remote) TriggerFeedback() error { return r.enqueue(CommandFeedback) }

func (r *Remote) TriggerNext() error { return r.enqueue(CommandNext) }

func (r *Remote) SeekToEnd() error { return r.enqueue(CommandSeekEnd) }

func (r *Remote) enqueue(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) >= maxPendingCommands {
		r.pending = r.pending[1:]
		r.dropped++
	}
	r.pending = append(r.pending, cmd)
	return nil
}
