package blocklist_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward/internal/blocklist"
)

func TestRebuildFoldsDedupsAndSorts(t *testing.T) {
	snap := blocklist.Rebuild(
		[]string{" Zeta ", "alpha", "ALPHA", ""},
		[]string{"AI Cover", "  ", "ai cover"},
		[]blocklist.Track{
			{Title: "Song B", Artist: "Band"},
			{Title: "song b", Artist: "BAND"},
			{Title: "Song A"},
			{Title: "   ", Artist: "Ghost"},
		},
		[]byte(`["Botcore", "botcore", "Synth Muse"]`),
	)

	assert.Equal(t, []string{"alpha", "zeta"}, snap.ManualArtists)
	assert.Equal(t, []string{"ai cover"}, snap.Keywords)
	assert.Equal(t, []blocklist.Track{
		{Title: "song a"},
		{Title: "song b", Artist: "band"},
	}, snap.Tracks)
	assert.Equal(t, []string{"botcore", "synth muse"}, snap.RemoteArtists)
	assert.Equal(t, 7, snap.Size())
}

func TestRebuildIsDeterministic(t *testing.T) {
	artists := []string{"c", "a", "b", "A"}
	tracks := []blocklist.Track{{Title: "y", Artist: "2"}, {Title: "x"}, {Title: "y", Artist: "1"}}
	remote := []byte(`{"group1": ["Q", "p"], "group2": "r"}`)

	first := blocklist.Rebuild(artists, nil, tracks, remote)
	second := blocklist.Rebuild(artists, nil, tracks, remote)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"p", "q", "r"}, first.RemoteArtists)
}

func TestRebuildAllowsCrossSetDuplicates(t *testing.T) {
	snap := blocklist.Rebuild([]string{"Botcore"}, nil, nil, []byte(`["botcore"]`))
	assert.Equal(t, []string{"botcore"}, snap.ManualArtists)
	assert.Equal(t, []string{"botcore"}, snap.RemoteArtists)
}

func TestRebuildMalformedRemoteYieldsEmptySet(t *testing.T) {
	for _, raw := range []string{`42`, `not json`, `"just a string"`, ``, `null`, `true`} {
		snap := blocklist.Rebuild([]string{"kept"}, nil, nil, []byte(raw))
		assert.Empty(t, snap.RemoteArtists, "payload %q", raw)
		assert.Equal(t, []string{"kept"}, snap.ManualArtists, "payload %q", raw)
	}
}

func TestRebuildFromValuesDecodesMixedTracks(t *testing.T) {
	values := map[string]json.RawMessage{
		blocklist.KeyArtists:  json.RawMessage(`["Artist One", 7, null]`),
		blocklist.KeyKeywords: json.RawMessage(`{"not": "a list"}`),
		blocklist.KeyTracks:   json.RawMessage(`["Bare Title", {"title": "Obj Title", "artist": "Someone"}, {"artist": "No Title"}, {"title": 5}]`),
		blocklist.KeyRemote:   json.RawMessage(`{"artists": [{"name": "Remote A"}, {"name": 3}]}`),
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	snap := blocklist.RebuildFromValues(values, now)
	require.NotNil(t, snap)
	assert.Equal(t, []string{"artist one"}, snap.ManualArtists)
	assert.Empty(t, snap.Keywords)
	assert.Equal(t, []blocklist.Track{{Title: "bare title"}, {Title: "obj title", Artist: "someone"}}, snap.Tracks)
	assert.Equal(t, []string{"remote a"}, snap.RemoteArtists)
	assert.Equal(t, now, snap.BuiltAt)
}

func TestHolderSwapsAtomically(t *testing.T) {
	h := blocklist.NewHolder()
	require.True(t, h.Load().Empty())

	next := blocklist.Rebuild([]string{"x"}, nil, nil, nil)
	prev := h.Swap(next)
	assert.True(t, prev.Empty())
	assert.Same(t, next, h.Load())

	h.Swap(nil)
	assert.NotNil(t, h.Load())
	assert.True(t, h.Load().Empty())
}
