package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ward/internal/match"
)

func TestArtistTokens(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "Kanye West", want: []string{"kanye west"}},
		{line: "A & B, C / D • Album • 2024", want: []string{"a", "b", "c", "d"}},
		{line: "Lead feat. Guest ft. Other", want: []string{"lead", "guest", "other"}},
		{line: "Mia X Jay · Single", want: []string{"mia", "jay"}},
		{line: "Xavier", want: []string{"xavier"}},
		{line: "Max", want: []string{"max"}},
		{line: " • Album", want: nil},
		{line: "", want: nil},
		{line: "A &  , B", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, match.ArtistTokens(tt.line), "line %q", tt.line)
	}
}

func TestLeadArtist(t *testing.T) {
	assert.Equal(t, "DJ Botcore", match.LeadArtist("DJ Botcore & Friends • Night Drive • 2025"))
	assert.Equal(t, "Solo Act", match.LeadArtist("Solo Act • 2.1M views"))
	assert.Equal(t, "Mia", match.LeadArtist("Mia X Jay"))
	assert.Equal(t, "", match.LeadArtist("   "))
	assert.Equal(t, "A & B", match.PrimaryArtist("A & B • Album"))
}
