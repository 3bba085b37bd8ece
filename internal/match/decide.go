package match

import (
	"slices"
	"strings"
	"unicode/utf8"

	"ward/internal/blocklist"
	"ward/internal/player"
	"ward/internal/textutil"
)

// Tier names the rule family that produced a match.
type Tier int

const (
	TierNone Tier = iota
	TierTrack
	TierKeyword
	TierManualArtist
	TierRemoteArtist
)

func (t Tier) String() string {
	switch t {
	case TierTrack:
		return "track"
	case TierKeyword:
		return "keyword"
	case TierManualArtist:
		return "manual_artist"
	case TierRemoteArtist:
		return "remote_artist"
	default:
		return "none"
	}
}

// Tiers lists the matching tiers in evaluation order.
func Tiers() []Tier {
	return []Tier{TierTrack, TierKeyword, TierManualArtist, TierRemoteArtist}
}

// DefaultShortEntryThreshold is the remote entry length at or below which an
// exact token match is required.
const DefaultShortEntryThreshold = 3

// Policy holds the tunable matching parameters.
type Policy struct {
	ShortEntryThreshold int
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() Policy {
	return Policy{ShortEntryThreshold: DefaultShortEntryThreshold}
}

// Verdict is the result of one decision. Rule is the matched entry as stored
// in the snapshot.
type Verdict struct {
	Matched bool
	Tier    Tier
	Rule    string
}

// Decide evaluates now against snap. An empty title or artist line never
// matches.
func Decide(now player.NowPlaying, snap *blocklist.Snapshot, policy Policy) Verdict {
	if snap == nil {
		return Verdict{}
	}
	title := textutil.Fold(now.Title)
	line := textutil.Fold(now.ArtistLine)
	if title == "" || line == "" {
		return Verdict{}
	}

	for _, t := range snap.Tracks {
		if t.Title == title && (t.Artist == "" || strings.Contains(line, t.Artist)) {
			return Verdict{Matched: true, Tier: TierTrack, Rule: t.Display()}
		}
	}

	for _, kw := range snap.Keywords {
		if strings.Contains(title, kw) {
			return Verdict{Matched: true, Tier: TierKeyword, Rule: kw}
		}
	}

	tokens := ArtistTokens(now.ArtistLine)
	for _, a := range snap.ManualArtists {
		if slices.Contains(tokens, a) {
			return Verdict{Matched: true, Tier: TierManualArtist, Rule: a}
		}
	}

	for _, a := range snap.RemoteArtists {
		if utf8.RuneCountInString(a) > policy.ShortEntryThreshold {
			if strings.Contains(line, a) {
				return Verdict{Matched: true, Tier: TierRemoteArtist, Rule: a}
			}
			continue
		}
		if slices.Contains(tokens, a) {
			return Verdict{Matched: true, Tier: TierRemoteArtist, Rule: a}
		}
	}

	return Verdict{}
}
