package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward/internal/blocklist"
	"ward/internal/config"
	"ward/internal/daemon"
	"ward/internal/logging"
	"ward/internal/player"
	"ward/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Catalog.Enabled = false
	cfg.Intervention.PollAttempts = 2
	cfg.Intervention.PollIntervalMS = 1
	cfg.Intervention.SettleDelayMS = 1
	cfg.Intervention.SeekDelayMS = 1
	require.NoError(t, cfg.EnsureDirectories())
	return &cfg
}

func startDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	st, err := store.Open(cfg.DatabasePath(), logging.NewNop())
	require.NoError(t, err)
	d, err := daemon.New(cfg, st, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Start(context.Background()))
	return d
}

func collectCommands(remote *player.Remote, into *[]player.Command) func() bool {
	return func() bool {
		*into = append(*into, remote.Drain()...)
		return slices.Contains(*into, player.CommandNext)
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testConfig(t)
	d := startDaemon(t, cfg)
	ctx := context.Background()

	status := d.Status(ctx)
	assert.True(t, status.Running)
	assert.NotEmpty(t, status.BridgeAddr)
	assert.Nil(t, status.Catalog)

	assert.Error(t, d.Start(ctx), "second start should fail")

	d.Stop()
	assert.False(t, d.Status(ctx).Running)
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	cfg := testConfig(t)
	startDaemon(t, cfg)

	other := *cfg
	other.Paths.APIBind = ""
	st, err := store.Open(other.DatabasePath(), logging.NewNop())
	require.NoError(t, err)
	d2, err := daemon.New(&other, st, logging.NewNop())
	require.NoError(t, err)
	defer d2.Close()

	err = d2.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestListChangeTriggersIntervention(t *testing.T) {
	cfg := testConfig(t)
	d := startDaemon(t, cfg)
	ctx := context.Background()

	d.Remote().Update(player.State{
		Title:           "Drift",
		ArtistLine:      "Velvet Sundown • Dust • 2025",
		FeedbackPresent: true,
	})

	added, err := d.Lists().Add(ctx, blocklist.ListArtists, blocklist.Artist("Velvet Sundown"))
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, []string{"velvet sundown"}, d.Snapshot().ManualArtists)

	var got []player.Command
	require.Eventually(t, collectCommands(d.Remote(), &got), 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, player.CommandFeedback, got[0])

	require.Eventually(t, func() bool { return d.Status(ctx).Monitor.Interventions == 1 }, time.Second, 5*time.Millisecond)
}

func TestBlockCurrent(t *testing.T) {
	cfg := testConfig(t)
	d := startDaemon(t, cfg)
	ctx := context.Background()

	_, _, err := d.BlockCurrent(ctx, blocklist.ListArtists)
	require.ErrorIs(t, err, blocklist.ErrEmptyEntry)

	d.Remote().Update(player.State{Title: "Drift", ArtistLine: "Velvet Sundown & Friend • Dust"})

	entry, added, err := d.BlockCurrent(ctx, blocklist.ListTracks)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Velvet Sundown & Friend - Drift", entry.Display())

	entry, _, err = d.BlockCurrent(ctx, blocklist.ListArtists)
	require.NoError(t, err)
	assert.Equal(t, "Velvet Sundown", entry.Value)

	_, _, err = d.BlockCurrent(ctx, blocklist.ListKeywords)
	require.ErrorIs(t, err, blocklist.ErrUnknownList)

	var got []player.Command
	require.Eventually(t, collectCommands(d.Remote(), &got), 2*time.Second, 5*time.Millisecond)
}

func TestBlockCurrentAlreadyStoredStillSkips(t *testing.T) {
	cfg := testConfig(t)
	d := startDaemon(t, cfg)
	ctx := context.Background()
	d.Remote().Update(player.State{Title: "Drift", ArtistLine: "Velvet Sundown"})

	_, added, err := d.BlockCurrent(ctx, blocklist.ListArtists)
	require.NoError(t, err)
	require.True(t, added)
	var first []player.Command
	require.Eventually(t, collectCommands(d.Remote(), &first), 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !d.Status(ctx).Monitor.Intervening }, 5*time.Second, 10*time.Millisecond)

	_, added, err = d.BlockCurrent(ctx, blocklist.ListArtists)
	require.NoError(t, err)
	assert.False(t, added)
	var second []player.Command
	require.Eventually(t, collectCommands(d.Remote(), &second), 2*time.Second, 5*time.Millisecond)
}

func TestExternalWriteRebuildsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	d := startDaemon(t, cfg)

	cli, err := store.Open(cfg.DatabasePath(), logging.NewNop())
	require.NoError(t, err)
	defer cli.Close()

	require.NoError(t, cli.Set(context.Background(), map[string]any{
		blocklist.KeyKeywords: []string{"AI Generated"},
	}))

	require.Eventually(t, func() bool {
		return slices.Equal(d.Snapshot().Keywords, []string{"ai generated"})
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCatalogRefreshFeedsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"Aventhis"},{"name":"Velvet Sundown"}]`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Catalog.Enabled = true
	cfg.Catalog.URL = srv.URL
	cfg.Catalog.MinFetchGap = 0
	d := startDaemon(t, cfg)

	require.Eventually(t, func() bool {
		return len(d.Snapshot().RemoteArtists) == 2
	}, 3*time.Second, 10*time.Millisecond)

	status := d.Status(context.Background())
	require.NotNil(t, status.Catalog)
	assert.Equal(t, 2, status.Catalog.Count)
}

func TestStatusOverBridge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.APIToken = "tok"
	d := startDaemon(t, cfg)

	req, err := http.NewRequest(http.MethodGet, "http://"+d.Status(context.Background()).BridgeAddr+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status daemon.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Running)
}
