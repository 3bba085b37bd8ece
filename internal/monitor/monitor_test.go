package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward/internal/actuator"
	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/match"
	"ward/internal/monitor"
	"ward/internal/player"
)

type fakeRunner struct {
	mu    sync.Mutex
	reqs  []actuator.Request
	gate  chan struct{}
	onRun func(actuator.Request)
}

func (f *fakeRunner) Run(ctx context.Context, req actuator.Request) actuator.State {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	gate, onRun := f.gate, f.onRun
	f.mu.Unlock()
	if onRun != nil {
		onRun(req)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return actuator.State{Request: req, Outcome: actuator.OutcomeCanceled}
		}
	}
	return actuator.State{Request: req, Outcome: actuator.OutcomeNoControl}
}

func (f *fakeRunner) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.reqs))
	for _, r := range f.reqs {
		out = append(out, r.Target.Title)
	}
	return out
}

func setup(t *testing.T, artists ...string) (*monitor.Monitor, *player.Remote, *blocklist.Holder, *fakeRunner) {
	t.Helper()
	host := player.NewRemote(nil)
	holder := blocklist.NewHolder()
	holder.Swap(blocklist.Rebuild(artists, nil, nil, nil))
	runner := &fakeRunner{}
	m := monitor.New(host, holder, match.DefaultPolicy(), runner, logging.NewNop(), nil)
	host.SetOnChange(m.Notify)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Stop)
	return m, host, holder, runner
}

func waitIdle(t *testing.T, m *monitor.Monitor) {
	t.Helper()
	require.Eventually(t, m.Idle, 2*time.Second, time.Millisecond)
}

func TestMonitorIntervenesOncePerTitle(t *testing.T) {
	m, host, _, runner := setup(t, "Bot Band")

	host.Update(player.State{Title: "Blocked", ArtistLine: "Bot Band • Album"})
	waitIdle(t, m)
	host.Update(player.State{Title: "Blocked", ArtistLine: "Bot Band • Album", FeedbackActive: true})
	m.Notify()
	m.Notify()
	waitIdle(t, m)

	assert.Equal(t, []string{"Blocked"}, runner.titles())
	status := m.Status()
	assert.Equal(t, "Blocked", status.Marker)
	assert.Equal(t, int64(1), status.Interventions)
	assert.Equal(t, "manual_artist", status.LastTier)
}

func TestMonitorMarksCleanItems(t *testing.T) {
	m, host, _, runner := setup(t, "Bot Band")

	host.Update(player.State{Title: "Fine", ArtistLine: "Human Band"})
	waitIdle(t, m)
	m.Notify()
	m.Notify()
	waitIdle(t, m)

	assert.Empty(t, runner.titles())
	assert.Equal(t, int64(1), m.Status().Evaluations)
	assert.Equal(t, "Fine", m.Status().Marker)
}

func TestMonitorSnapshotRebuildReevaluatesCurrentItem(t *testing.T) {
	m, host, holder, runner := setup(t)

	host.Update(player.State{Title: "Now Blocked", ArtistLine: "Late Addition"})
	waitIdle(t, m)
	require.Empty(t, runner.titles())

	holder.Swap(blocklist.Rebuild([]string{"late addition"}, nil, nil, nil))
	m.SnapshotChanged()
	waitIdle(t, m)

	assert.Equal(t, []string{"Now Blocked"}, runner.titles())
}

func TestMonitorNoopWithoutCurrentItem(t *testing.T) {
	m, _, _, runner := setup(t, "x")
	m.Notify()
	waitIdle(t, m)
	assert.Empty(t, runner.titles())
	assert.Equal(t, int64(0), m.Status().Evaluations)
}

func TestMonitorSingleFlightRetriesNextItemAfterRun(t *testing.T) {
	m, host, _, runner := setup(t, "Bot Band")
	gate := make(chan struct{})
	started := make(chan struct{}, 4)
	runner.mu.Lock()
	runner.gate = gate
	runner.onRun = func(actuator.Request) { started <- struct{}{} }
	runner.mu.Unlock()

	host.Update(player.State{Title: "First", ArtistLine: "Bot Band"})
	<-started

	// A rebuild during the run must not start a second run for the same title.
	m.SnapshotChanged()
	host.Update(player.State{Title: "Second", ArtistLine: "Bot Band"})
	require.Eventually(t, func() bool { return m.Status().LastItem == "Second" }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"First"}, runner.titles())

	close(gate)
	waitIdle(t, m)
	assert.Equal(t, []string{"First", "Second"}, runner.titles())
}

func TestMonitorStopCancelsInFlight(t *testing.T) {
	host := player.NewRemote(nil)
	holder := blocklist.NewHolder()
	holder.Swap(blocklist.Rebuild([]string{"bot band"}, nil, nil, nil))
	runner := &fakeRunner{gate: make(chan struct{})}
	m := monitor.New(host, holder, match.DefaultPolicy(), runner, nil, nil)
	host.SetOnChange(m.Notify)
	require.NoError(t, m.Start(context.Background()))
	require.Error(t, m.Start(context.Background()))

	host.Update(player.State{Title: "Blocked", ArtistLine: "Bot Band"})
	require.Eventually(t, func() bool { return len(runner.titles()) == 1 }, 2*time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, m.Status().Running)
}

func TestMonitorReportsVerdicts(t *testing.T) {
	host := player.NewRemote(nil)
	holder := blocklist.NewHolder()
	holder.Swap(blocklist.Rebuild(nil, []string{"ai"}, nil, nil))
	var mu sync.Mutex
	var tiers []match.Tier
	m := monitor.New(host, holder, match.DefaultPolicy(), &fakeRunner{}, nil, func(_ player.NowPlaying, v match.Verdict) {
		mu.Lock()
		tiers = append(tiers, v.Tier)
		mu.Unlock()
	})
	host.SetOnChange(m.Notify)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Stop)

	host.Update(player.State{Title: "AI Song", ArtistLine: "X"})
	waitIdle(t, m)
	host.Update(player.State{Title: "Clean", ArtistLine: "X"})
	waitIdle(t, m)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []match.Tier{match.TierKeyword, match.TierNone}, tiers)
}
