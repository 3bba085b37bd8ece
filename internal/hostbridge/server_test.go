package hostbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/player"
)

type stubBackend struct {
	lastList blocklist.List
	err      error
}

func (b *stubBackend) Status(context.Context) any {
	return map[string]any{"running": true}
}

func (b *stubBackend) BlockCurrent(_ context.Context, list blocklist.List) (blocklist.Entry, bool, error) {
	b.lastList = list
	if b.err != nil {
		return blocklist.Entry{}, false, b.err
	}
	if list == blocklist.ListTracks {
		return blocklist.TrackEntry("Drift", "Velvet Sundown"), true, nil
	}
	return blocklist.Artist("Velvet Sundown"), true, nil
}

func newTestServer(t *testing.T, token string) (*Server, *player.Remote, *stubBackend, *atomic.Int32) {
	t.Helper()
	var changes atomic.Int32
	remote := player.NewRemote(func() { changes.Add(1) })
	backend := &stubBackend{}
	srv := New(Options{Bind: "127.0.0.1:0", Token: token}, remote, backend, logging.NewNop())
	require.NotNil(t, srv)
	return srv, remote, backend, &changes
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewReturnsNilWithoutBind(t *testing.T) {
	assert.Nil(t, New(Options{}, player.NewRemote(nil), nil, logging.NewNop()))
}

func TestPlayerUpdateJSONNotifiesOnChange(t *testing.T) {
	srv, remote, _, changes := newTestServer(t, "")
	body := `{"title":"Drift","artist_line":"Velvet Sundown • Album","feedback_present":true}`

	w := do(t, srv.Handler(), http.MethodPost, "/api/player", body, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp PlayerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Changed)
	assert.Empty(t, resp.Commands)

	w = do(t, srv.Handler(), http.MethodPost, "/api/player", body, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Changed)
	assert.Equal(t, int32(1), changes.Load())

	item, ok := remote.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, "Drift", item.Title)
}

func TestPlayerUpdateHTMLIsParsed(t *testing.T) {
	srv, remote, _, _ := newTestServer(t, "")
	html := `<ytmusic-player-bar><div class="title">Drift</div><div class="byline">Velvet Sundown</div></ytmusic-player-bar>`
	payload, err := json.Marshal(map[string]string{"html": html})
	require.NoError(t, err)

	w := do(t, srv.Handler(), http.MethodPost, "/api/player", string(payload), "")
	require.Equal(t, http.StatusOK, w.Code)

	item, ok := remote.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, "Velvet Sundown", item.ArtistLine)
}

func TestPlayerUpdateRejectsGarbage(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	w := do(t, srv.Handler(), http.MethodPost, "/api/player", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandsDrainQueuedActions(t *testing.T) {
	srv, remote, _, _ := newTestServer(t, "")
	require.NoError(t, remote.TriggerFeedback())
	require.NoError(t, remote.TriggerNext())

	w := do(t, srv.Handler(), http.MethodGet, "/api/commands", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp CommandsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []player.Command{player.CommandFeedback, player.CommandNext}, resp.Commands)

	w = do(t, srv.Handler(), http.MethodGet, "/api/commands", "", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Commands)
}

func TestBlockRoutesToBackend(t *testing.T) {
	srv, _, backend, _ := newTestServer(t, "")
	w := do(t, srv.Handler(), http.MethodPost, "/api/block", `{"list":"song"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, blocklist.ListTracks, backend.lastList)

	var resp BlockResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Velvet Sundown - Drift", resp.Entry)
	assert.True(t, resp.Added)
}

func TestBlockUnknownListAndNothingPlaying(t *testing.T) {
	srv, _, backend, _ := newTestServer(t, "")
	w := do(t, srv.Handler(), http.MethodPost, "/api/block", `{"list":"albums"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.err = blocklist.ErrEmptyEntry
	w = do(t, srv.Handler(), http.MethodPost, "/api/block", `{"list":"artists"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "s3cret")

	w := do(t, srv.Handler(), http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv.Handler(), http.MethodGet, "/api/status", "", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv.Handler(), http.MethodGet, "/api/status", "", "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running":true}`, w.Body.String())

	w = do(t, srv.Handler(), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsRouteMounted(t *testing.T) {
	remote := player.NewRemote(nil)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ward_up 1\n"))
	})
	srv := New(Options{Bind: "127.0.0.1:0", Metrics: metrics}, remote, nil, logging.NewNop())
	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ward_up")
}

func TestStartServesUntilCanceled(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	require.Eventually(t, func() bool {
		_, err := http.Get("http://" + addr + "/healthz")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
