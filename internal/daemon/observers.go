package daemon

import (
	"context"
	"time"

	"ward/internal/actuator"
	"ward/internal/catalog"
	"ward/internal/eventbus"
	"ward/internal/logging"
	"ward/internal/match"
	"ward/internal/notifications"
	"ward/internal/player"
)

const sideEffectTimeout = 15 * time.Second

func (d *Daemon) observers() []actuator.Observer {
	return []actuator.Observer{
		actuator.ObserverFunc(d.recordIntervention),
		actuator.ObserverFunc(d.announceIntervention),
	}
}

func (d *Daemon) onVerdict(_ player.NowPlaying, verdict match.Verdict) {
	d.recorder.IncEvaluation(verdict.Tier.String())
}

func (d *Daemon) recordIntervention(_ context.Context, state actuator.State) {
	d.recorder.IncIntervention(string(state.Outcome))
	d.recorder.ObserveInterventionDuration(state.Duration)
}

// announceIntervention pushes the outcome to ntfy and NATS off the actuator
// goroutine so slow endpoints never delay the next evaluation.
func (d *Daemon) announceIntervention(ctx context.Context, state actuator.State) {
	correlation, _ := logging.CorrelationIDFromContext(ctx)
	event := eventbus.InterventionEvent{
		ID:            state.ID,
		Title:         state.Request.Target.Title,
		ArtistLine:    state.Request.Target.ArtistLine,
		Tier:          state.Request.Tier,
		Rule:          state.Request.Rule,
		Outcome:       string(state.Outcome),
		Confirmed:     state.Confirmed,
		Advanced:      state.Advanced,
		Seeked:        state.Seeked,
		Attempts:      state.AttemptsElapsed,
		StartedAt:     state.StartedAt,
		Duration:      state.Duration,
		CorrelationID: correlation,
	}
	note := notifications.Intervention{
		Title:      state.Request.Target.Title,
		ArtistLine: state.Request.Target.ArtistLine,
		Tier:       state.Request.Tier,
		Rule:       state.Request.Rule,
		Outcome:    string(state.Outcome),
		Advanced:   state.Advanced,
	}
	logger := logging.WithContext(ctx, d.logger)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		defer cancel()
		if err := d.publisher.PublishIntervention(sendCtx, event); err != nil {
			logging.WarnWithContext(logger, "intervention event publish failed", "event_publish_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check events.nats_url"),
			)
		}
		if err := d.notifier.NotifyIntervention(sendCtx, note); err != nil {
			logging.WarnWithContext(logger, "intervention notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}()
}

func (d *Daemon) onCatalogRefresh(ctx context.Context, _ catalog.Result, err error) {
	d.recorder.IncCatalogRefresh(err == nil)
	if err == nil {
		return
	}
	if nerr := d.notifier.NotifyCatalogError(ctx, err); nerr != nil {
		logging.WarnWithContext(d.logger, "catalog error notification failed", "notification_failed",
			logging.Error(nerr),
		)
	}
}
