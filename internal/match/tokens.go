package match

import (
	"regexp"
	"strings"

	"ward/internal/textutil"
)

// fieldSeparators split the artist line into artists, album, and year.
const fieldSeparators = "•·"

var conjunctionPattern = regexp.MustCompile(`(?i)\s*(?:&|,|/|\bfeat\.|\bft\.)\s*|\s+x\s+`)

// LeadSegment returns the portion of the artist line before the first field
// separator, folded.
func LeadSegment(artistLine string) string {
	folded := textutil.Fold(artistLine)
	if i := strings.IndexAny(folded, fieldSeparators); i >= 0 {
		folded = folded[:i]
	}
	return strings.TrimSpace(folded)
}

// ArtistTokens splits the lead segment of the artist line into individual
// folded artist names.
func ArtistTokens(artistLine string) []string {
	lead := LeadSegment(artistLine)
	if lead == "" {
		return nil
	}
	parts := conjunctionPattern.Split(lead, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// PrimaryArtist returns the lead segment with its original casing, as shown
// on the host. Used when blocking the current item.
func PrimaryArtist(artistLine string) string {
	line := textutil.Clean(artistLine)
	if i := strings.IndexAny(line, fieldSeparators); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// LeadArtist returns the first artist of the lead segment with original
// casing.
func LeadArtist(artistLine string) string {
	primary := PrimaryArtist(artistLine)
	if primary == "" {
		return ""
	}
	loc := conjunctionPattern.FindStringIndex(primary)
	if loc == nil {
		return primary
	}
	return strings.TrimSpace(primary[:loc[0]])
}
