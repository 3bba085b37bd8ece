// Package monitor is the playback monitor: a single goroutine that turns
// noisy change notifications into at most one intervention per distinct
// title.
//
// Producers call Notify (the player changed) or SnapshotChanged (a new
// blocklist snapshot was published). Both only set a pending bit and wake the
// loop, so bursts coalesce and producers never block. The loop owns the
// processed marker; evaluations never overlap.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ward/internal/actuator"
	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/match"
	"ward/internal/player"
)

// Event is a normalized change notification.
type Event uint32

const (
	EventPlayerChanged Event = 1 << iota
	EventSnapshotRebuilt
)

// Runner executes one intervention to completion.
type Runner interface {
	Run(ctx context.Context, req actuator.Request) actuator.State
}

// VerdictFunc receives every evaluation result.
type VerdictFunc func(item player.NowPlaying, verdict match.Verdict)

// Status is a point-in-time view of the monitor.
type Status struct {
	Running       bool         `json:"running"`
	Marker        string       `json:"marker"`
	LastItem      string       `json:"last_item,omitempty"`
	LastTier      string       `json:"last_tier,omitempty"`
	LastRule      string       `json:"last_rule,omitempty"`
	Evaluations   int64        `json:"evaluations"`
	Interventions int64        `json:"interventions"`
	Intervening   bool         `json:"intervening"`
	LastEvaluated time.Time    `json:"last_evaluated,omitzero"`
	Snapshot      SnapshotInfo `json:"snapshot"`
}

// SnapshotInfo summarizes the active snapshot.
type SnapshotInfo struct {
	ManualArtists int       `json:"manual_artists"`
	Keywords      int       `json:"keywords"`
	Tracks        int       `json:"tracks"`
	RemoteArtists int       `json:"remote_artists"`
	BuiltAt       time.Time `json:"built_at,omitzero"`
}

// Monitor reacts to change events.
type Monitor struct {
	host      player.Host
	snapshots *blocklist.Holder
	policy    match.Policy
	runner    Runner
	logger    *slog.Logger
	onVerdict VerdictFunc

	pending atomic.Uint32
	wake    chan struct{}

	evaluations   atomic.Int64
	interventions atomic.Int64

	mu          sync.Mutex
	running     bool
	handling    bool
	marker      string
	inFlight    string
	intervening bool
	last        player.NowPlaying
	lastVerdict match.Verdict
	lastAt      time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a monitor. onVerdict may be nil.
func New(host player.Host, snapshots *blocklist.Holder, policy match.Policy, runner Runner, logger *slog.Logger, onVerdict VerdictFunc) *Monitor {
	return &Monitor{
		host:      host,
		snapshots: snapshots,
		policy:    policy,
		runner:    runner,
		logger:    logging.NewComponentLogger(logger, "monitor"),
		onVerdict: onVerdict,
		wake:      make(chan struct{}, 1),
	}
}

// Start launches the event loop and queues an initial evaluation.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(runCtx)
	m.post(EventPlayerChanged)
	return nil
}

// Stop cancels the loop and any in-flight intervention and waits for both.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Notify reports that the player UI changed.
func (m *Monitor) Notify() { m.post(EventPlayerChanged) }

// SnapshotChanged reports that a new snapshot was published. The processed
// marker is cleared so the current item is judged against the new rules.
func (m *Monitor) SnapshotChanged() { m.post(EventSnapshotRebuilt) }

// Reevaluate forces the current item through the decision path again.
func (m *Monitor) Reevaluate() { m.post(EventSnapshotRebuilt) }

// Status returns a snapshot of monitor state.
func (m *Monitor) Status() Status {
	snap := m.snapshots.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Running:       m.running,
		Marker:        m.marker,
		LastItem:      m.last.Title,
		LastTier:      tierLabel(m.lastVerdict),
		LastRule:      m.lastVerdict.Rule,
		Evaluations:   m.evaluations.Load(),
		Interventions: m.interventions.Load(),
		Intervening:   m.intervening,
		LastEvaluated: m.lastAt,
		Snapshot: SnapshotInfo{
			ManualArtists: len(snap.ManualArtists),
			Keywords:      len(snap.Keywords),
			Tracks:        len(snap.Tracks),
			RemoteArtists: len(snap.RemoteArtists),
			BuiltAt:       snap.BuiltAt,
		},
	}
}

// Idle reports whether no event is queued, no evaluation is running, and no
// intervention is in flight.
func (m *Monitor) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.running || (!m.handling && !m.intervening && m.pending.Load() == 0)
}

func (m *Monitor) post(ev Event) {
	m.pending.Or(uint32(ev))
	m.kick()
}

func (m *Monitor) kick() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
			m.mu.Lock()
			m.handling = true
			m.mu.Unlock()

			if events := Event(m.pending.Swap(0)); events != 0 {
				m.handle(ctx, events)
			}

			m.mu.Lock()
			m.handling = false
			m.mu.Unlock()
		}
	}
}

func (m *Monitor) handle(ctx context.Context, events Event) {
	if events&EventSnapshotRebuilt != 0 {
		m.mu.Lock()
		m.marker = ""
		m.mu.Unlock()
	}

	item, ok := m.host.NowPlaying()
	if !ok {
		return
	}

	m.mu.Lock()
	if item.Title == m.marker {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	verdict := match.Decide(item, m.snapshots.Load(), m.policy)
	m.evaluations.Add(1)
	if m.onVerdict != nil {
		m.onVerdict(item, verdict)
	}

	m.mu.Lock()
	m.last = item
	m.lastVerdict = verdict
	m.lastAt = time.Now()
	if !verdict.Matched {
		m.marker = item.Title
		m.mu.Unlock()
		m.logger.Debug("item clean",
			logging.String(logging.FieldTitle, item.Title),
			logging.String(logging.FieldEventType, "evaluation_clean"),
		)
		return
	}
	if m.intervening {
		// The actuator is single-flight. The same title is already being
		// handled; a different title is retried when the current run ends.
		if m.inFlight == item.Title {
			m.marker = item.Title
		}
		m.mu.Unlock()
		return
	}
	m.marker = item.Title
	m.inFlight = item.Title
	m.intervening = true
	m.mu.Unlock()

	m.logger.Info("blocked item detected",
		logging.String(logging.FieldTitle, item.Title),
		logging.String(logging.FieldArtist, item.ArtistLine),
		logging.String(logging.FieldTier, verdict.Tier.String()),
		logging.String("rule", verdict.Rule),
		logging.String(logging.FieldEventType, "evaluation_matched"),
	)

	m.interventions.Add(1)
	m.wg.Add(1)
	go func(req actuator.Request) {
		defer m.wg.Done()
		m.runner.Run(ctx, req)

		m.mu.Lock()
		m.intervening = false
		m.inFlight = ""
		if ctx.Err() == nil {
			// Re-check in case another item arrived while the actuator ran.
			m.pending.Or(uint32(EventPlayerChanged))
		}
		m.mu.Unlock()
		m.kick()
	}(actuator.Request{Target: item, Tier: verdict.Tier.String(), Rule: verdict.Rule})
}

func tierLabel(v match.Verdict) string {
	if !v.Matched {
		return ""
	}
	return v.Tier.String()
}
