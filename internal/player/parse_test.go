package player_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward/internal/player"
)

const playerBarHTML = `
<ytmusic-player-bar>
  <div class="content-info-wrapper">
    <yt-formatted-string class="title">  Neon Rain </yt-formatted-string>
    <span class="subtitle"><yt-formatted-string class="byline">DJ Botcore &amp; Friends • Night Drive • 2025</yt-formatted-string></span>
  </div>
  <div class="middle-controls-buttons">
    <ytmusic-like-button-renderer>
      <div class="dislike" aria-pressed="false"><button aria-pressed="true"></button></div>
    </ytmusic-like-button-renderer>
  </div>
  <video data-ended></video>
</ytmusic-player-bar>`

func TestParsePlayerBar(t *testing.T) {
	state, err := player.ParsePlayerBar(playerBarHTML)
	require.NoError(t, err)

	assert.Equal(t, "Neon Rain", state.Title)
	assert.Equal(t, "DJ Botcore & Friends • Night Drive • 2025", state.ArtistLine)
	assert.True(t, state.FeedbackPresent)
	assert.True(t, state.FeedbackActive, "inner button aria-pressed should count")
	assert.True(t, state.MediaPresent)
	assert.True(t, state.MediaEnded)
}

func TestParsePlayerBarMissingElements(t *testing.T) {
	state, err := player.ParsePlayerBar(`<ytmusic-player-bar><div class="title">Only Title</div></ytmusic-player-bar>`)
	require.NoError(t, err)

	assert.Equal(t, "Only Title", state.Title)
	assert.Empty(t, state.ArtistLine)
	assert.False(t, state.FeedbackPresent)
	assert.False(t, state.MediaPresent)
}

func TestRemoteNowPlayingRequiresBothFields(t *testing.T) {
	r := player.NewRemote(nil)
	_, ok := r.NowPlaying()
	assert.False(t, ok)

	r.Update(player.State{Title: "Song"})
	_, ok = r.NowPlaying()
	assert.False(t, ok)

	r.Update(player.State{Title: "Song", ArtistLine: "Band"})
	item, ok := r.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, player.NowPlaying{Title: "Song", ArtistLine: "Band"}, item)
}

func TestRemoteUpdateNotifiesOnChangeOnly(t *testing.T) {
	calls := 0
	r := player.NewRemote(func() { calls++ })
	state := player.State{Title: "A", ArtistLine: "B"}

	assert.True(t, r.Update(state))
	assert.False(t, r.Update(state))
	state.FeedbackActive = true
	assert.True(t, r.Update(state))
	assert.Equal(t, 2, calls)
}

func TestRemoteQueuesCommands(t *testing.T) {
	r := player.NewRemote(nil)
	require.NoError(t, r.TriggerFeedback())
	require.NoError(t, r.TriggerNext())
	require.NoError(t, r.SeekToEnd())

	assert.Equal(t, []player.Command{player.CommandFeedback, player.CommandNext, player.CommandSeekEnd}, r.Drain())
	assert.Empty(t, r.Drain())

	for range 40 {
		_ = r.TriggerNext()
	}
	assert.Len(t, r.Drain(), 32)
	assert.Equal(t, 8, r.Dropped())
}
