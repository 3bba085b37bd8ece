// Package actuator executes the skip protocol for a matched item: signal
// negative feedback, poll for confirmation within a fixed ceiling, then
// advance. Advancement always happens, whether or not the signal confirmed.
package actuator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ward/internal/logging"
	"ward/internal/player"
	"ward/internal/retry"
)

// Timings parameterize the protocol.
type Timings struct {
	Confirm   retry.Bounded
	Settle    time.Duration
	SeekDelay time.Duration
}

// DefaultTimings returns 20 checks at 100ms, a 2s settle, and a 500ms seek delay.
func DefaultTimings() Timings {
	return Timings{
		Confirm:   retry.Bounded{Attempts: 20, Interval: 100 * time.Millisecond},
		Settle:    2 * time.Second,
		SeekDelay: 500 * time.Millisecond,
	}
}

// Outcome classifies how the signal phase ended.
type Outcome string

const (
	OutcomeConfirmed     Outcome = "confirmed"
	OutcomeUnconfirmed   Outcome = "unconfirmed"
	OutcomeNoControl     Outcome = "no_control"
	OutcomeAlreadyActive Outcome = "already_active"
	OutcomeCanceled      Outcome = "canceled"
)

// Request describes why an intervention was started.
type Request struct {
	Target player.NowPlaying
	Tier   string
	Rule   string
}

// State is owned by one Run and handed to observers when it completes.
type State struct {
	ID              string
	Request         Request
	AttemptsElapsed int
	Confirmed       bool
	Outcome         Outcome
	Advanced        bool
	Seeked          bool
	StartedAt       time.Time
	Duration        time.Duration
}

// Observer is notified after every intervention.
type Observer interface {
	InterventionCompleted(ctx context.Context, state State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, state State)

func (f ObserverFunc) InterventionCompleted(ctx context.Context, state State) { f(ctx, state) }

// Actuator drives the host through the skip protocol.
type Actuator struct {
	host      player.Host
	timings   Timings
	logger    *slog.Logger
	observers []Observer
}

// New constructs an actuator.
func New(host player.Host, timings Timings, logger *slog.Logger, observers ...Observer) *Actuator {
	return &Actuator{
		host:      host,
		timings:   timings,
		logger:    logging.NewComponentLogger(logger, "actuator"),
		observers: observers,
	}
}

// Ceiling is the longest the signal and confirm phases can take before
// advancement starts.
func (a *Actuator) Ceiling() time.Duration {
	return a.timings.Confirm.Ceiling() + a.timings.Settle
}

// Run executes one intervention to completion. It is not safe to run two
// interventions concurrently against the same host; the monitor guarantees
// that by marking the item before calling Run.
func (a *Actuator) Run(ctx context.Context, req Request) State {
	state := State{ID: uuid.NewString(), Request: req, StartedAt: time.Now()}
	ctx = logging.WithCorrelationID(ctx, state.ID)
	logger := logging.WithContext(ctx, a.logger)

	logger.Info("intervention started",
		logging.String(logging.FieldTitle, req.Target.Title),
		logging.String(logging.FieldArtist, req.Target.ArtistLine),
		logging.String(logging.FieldTier, req.Tier),
		logging.String("rule", req.Rule),
		logging.String(logging.FieldEventType, "intervention_started"),
	)

	if err := a.signal(ctx, logger, &state); err != nil {
		state.Outcome = OutcomeCanceled
	}
	if state.Outcome != OutcomeCanceled {
		a.advance(ctx, logger, &state)
	}

	state.Duration = time.Since(state.StartedAt)
	logger.Info("intervention completed",
		logging.String("outcome", string(state.Outcome)),
		logging.Bool("confirmed", state.Confirmed),
		logging.Int("attempts", state.AttemptsElapsed),
		logging.Bool("advanced", state.Advanced),
		logging.Bool("seeked", state.Seeked),
		logging.Duration("elapsed", state.Duration),
		logging.String(logging.FieldEventType, "intervention_completed"),
	)
	for _, obs := range a.observers {
		obs.InterventionCompleted(ctx, state)
	}
	return state
}

// signal runs phases 1 and 2. A non-nil error means ctx ended and the
// protocol must stop.
func (a *Actuator) signal(ctx context.Context, logger *slog.Logger, state *State) error {
	present, active := a.host.FeedbackControl()
	switch {
	case !present:
		state.Outcome = OutcomeNoControl
		return nil
	case active:
		state.Outcome = OutcomeAlreadyActive
		return nil
	}

	if err := a.host.TriggerFeedback(); err != nil {
		logging.WarnWithContext(logger, "feedback trigger failed; skipping without it", "intervention_feedback_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item is skipped without negative feedback"),
		)
		state.Outcome = OutcomeUnconfirmed
		return nil
	}

	res, err := a.timings.Confirm.Poll(ctx, func() bool {
		_, active := a.host.FeedbackControl()
		return active
	})
	state.AttemptsElapsed = res.Attempts
	state.Confirmed = res.Confirmed
	if err != nil {
		return err
	}
	if !res.Confirmed {
		state.Outcome = OutcomeUnconfirmed
		logger.Debug("feedback not confirmed within ceiling",
			logging.Int("attempts", res.Attempts),
			logging.String(logging.FieldEventType, "intervention_unconfirmed"),
		)
		return nil
	}
	state.Outcome = OutcomeConfirmed
	return retry.Sleep(ctx, a.timings.Settle)
}

// advance runs phase 3.
func (a *Actuator) advance(ctx context.Context, logger *slog.Logger, state *State) {
	if err := a.host.TriggerNext(); err != nil {
		logging.WarnWithContext(logger, "next trigger failed; relying on seek fallback", "intervention_next_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item may keep playing until the seek fallback runs"),
		)
	} else {
		state.Advanced = true
	}

	if err := retry.Sleep(ctx, a.timings.SeekDelay); err != nil {
		return
	}
	present, ended := a.host.Media()
	if !present || ended {
		return
	}
	// A report taken before next was delivered still shows the target, and a
	// seek queued behind next would land on the replacement.
	if syncer, ok := a.host.(player.Syncer); ok && !syncer.Synced() {
		logger.Debug("seek fallback skipped; host has not reported since advancing",
			logging.String(logging.FieldEventType, "intervention_seek_skipped"),
		)
		return
	}
	// Only force the position while the blocked item is still current.
	if current, ok := a.host.NowPlaying(); ok && current.Title != state.Request.Target.Title {
		return
	}
	if err := a.host.SeekToEnd(); err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(logger, "seek fallback failed", "intervention_seek_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "blocked item may continue playing"),
			)
		}
		return
	}
	state.Seeked = true
}
