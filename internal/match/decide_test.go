package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ward/internal/blocklist"
	"ward/internal/match"
	"ward/internal/player"
)

func item(title, line string) player.NowPlaying {
	return player.NowPlaying{Title: title, ArtistLine: line}
}

func TestDecideTrackTier(t *testing.T) {
	snap := blocklist.Rebuild(nil, nil, []blocklist.Track{{Title: "Neon Rain", Artist: "Botcore"}, {Title: "Any Artist Song"}}, nil)

	v := match.Decide(item("neon rain", "DJ BOTCORE & Friends • Album • 2025"), snap, match.DefaultPolicy())
	assert.Equal(t, match.Verdict{Matched: true, Tier: match.TierTrack, Rule: "botcore - neon rain"}, v)

	v = match.Decide(item("Neon Rain", "Someone Else"), snap, match.DefaultPolicy())
	assert.False(t, v.Matched, "artist-scoped track must not match other artists")

	v = match.Decide(item("Any Artist Song", "Whoever"), snap, match.DefaultPolicy())
	assert.Equal(t, match.TierTrack, v.Tier)

	v = match.Decide(item("Neon Rain (Remix)", "Botcore"), snap, match.DefaultPolicy())
	assert.False(t, v.Matched, "track titles compare exactly")
}

func TestDecideKeywordTierIgnoresArtist(t *testing.T) {
	snap := blocklist.Rebuild(nil, []string{"AI Cover"}, nil, nil)

	v := match.Decide(item("Yesterday (ai cover)", "Totally Human Band"), snap, match.DefaultPolicy())
	assert.True(t, v.Matched)
	assert.Equal(t, match.TierKeyword, v.Tier)
	assert.Equal(t, "ai cover", v.Rule)

	v = match.Decide(item("Yesterday", "AI Cover Band"), snap, match.DefaultPolicy())
	assert.False(t, v.Matched, "keywords only look at the title")
}

func TestDecideManualArtistExactToken(t *testing.T) {
	snap := blocklist.Rebuild([]string{"Ye"}, nil, nil, nil)

	assert.False(t, match.Decide(item("Song", "Kanye West"), snap, match.DefaultPolicy()).Matched)
	assert.False(t, match.Decide(item("Song", "Yeah Yeah Yeahs"), snap, match.DefaultPolicy()).Matched)

	v := match.Decide(item("Song", "Ye"), snap, match.DefaultPolicy())
	assert.Equal(t, match.Verdict{Matched: true, Tier: match.TierManualArtist, Rule: "ye"}, v)

	v = match.Decide(item("Song", "Ty Dolla $ign feat. Ye • Vultures • 2024"), snap, match.DefaultPolicy())
	assert.Equal(t, match.TierManualArtist, v.Tier)
}

func TestDecideManualArtistIgnoresAlbumSegment(t *testing.T) {
	snap := blocklist.Rebuild([]string{"Night Drive"}, nil, nil, nil)
	v := match.Decide(item("Song", "Someone • Night Drive • 2025"), snap, match.DefaultPolicy())
	assert.False(t, v.Matched)
}

func TestDecideRemoteArtistTier(t *testing.T) {
	snap := blocklist.Rebuild(nil, nil, nil, []byte(`["botcore", "Dj", "Aurora Synth"]`))

	v := match.Decide(item("Song", "DJ Botcore & Friends"), snap, match.DefaultPolicy())
	assert.Equal(t, match.Verdict{Matched: true, Tier: match.TierRemoteArtist, Rule: "botcore"}, v)

	v = match.Decide(item("Song", "Djangos"), snap, match.DefaultPolicy())
	assert.False(t, v.Matched, "short remote entries need an exact token")

	v = match.Decide(item("Song", "Mia x DJ • Single"), snap, match.DefaultPolicy())
	assert.Equal(t, match.Verdict{Matched: true, Tier: match.TierRemoteArtist, Rule: "dj"}, v)

	v = match.Decide(item("Song", "Various • Aurora Synth Presents • 2024"), snap, match.DefaultPolicy())
	assert.True(t, v.Matched, "long remote entries match anywhere in the raw line")
}

func TestDecideShortEntryThresholdIsConfigurable(t *testing.T) {
	snap := blocklist.Rebuild(nil, nil, nil, []byte(`["bot"]`))

	assert.False(t, match.Decide(item("Song", "Robotnik"), snap, match.DefaultPolicy()).Matched)
	assert.True(t, match.Decide(item("Song", "Robotnik"), snap, match.Policy{ShortEntryThreshold: 2}).Matched)
}

func TestDecideTierPriority(t *testing.T) {
	snap := blocklist.Rebuild([]string{"band"}, []string{"song"}, []blocklist.Track{{Title: "song"}}, []byte(`["band"]`))

	v := match.Decide(item("Song", "Band"), snap, match.DefaultPolicy())
	assert.Equal(t, match.TierTrack, v.Tier)

	v = match.Decide(item("Other Song", "Band"), snap, match.DefaultPolicy())
	assert.Equal(t, match.TierKeyword, v.Tier)

	v = match.Decide(item("Other", "Band"), snap, match.DefaultPolicy())
	assert.Equal(t, match.TierManualArtist, v.Tier)
}

func TestDecideEmptyInputsNeverMatch(t *testing.T) {
	snap := blocklist.Rebuild([]string{"a"}, []string{"a"}, nil, []byte(`["aaaa"]`))

	assert.Equal(t, match.Verdict{}, match.Decide(item("", "a"), snap, match.DefaultPolicy()))
	assert.Equal(t, match.Verdict{}, match.Decide(item("a", "   "), snap, match.DefaultPolicy()))
	assert.Equal(t, match.Verdict{}, match.Decide(item("a", "a"), nil, match.DefaultPolicy()))
}

func TestDecideKeepsDiacritics(t *testing.T) {
	snap := blocklist.Rebuild([]string{"Beyonce"}, nil, nil, nil)
	assert.False(t, match.Decide(item("Halo", "Beyoncé"), snap, match.DefaultPolicy()).Matched)

	snap = blocklist.Rebuild([]string{"BEYONCÉ"}, nil, nil, nil)
	assert.True(t, match.Decide(item("Halo", "Beyoncé"), snap, match.DefaultPolicy()).Matched)
}
