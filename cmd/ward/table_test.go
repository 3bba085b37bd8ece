package main

import (
	"strings"
	"testing"

	"ward/internal/blocklist"
)

func TestRenderBlocklistNumbersPerListAndSkipsEmpty(t *testing.T) {
	out := renderBlocklist(
		[]blocklist.List{blocklist.ListArtists, blocklist.ListKeywords, blocklist.ListTracks},
		map[blocklist.List][]string{
			blocklist.ListArtists: {"Aventhis", "Velvet Sundown"},
			blocklist.ListTracks:  {"Band - Song"},
		},
	)

	requireContains(t, out, "Velvet Sundown")
	requireContains(t, out, "Band - Song")
	requireContains(t, out, "3 entries")
	if strings.Contains(out, string(blocklist.ListKeywords)) {
		t.Fatalf("empty list should not render, got:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Band - Song") && !strings.Contains(line, " 1 ") {
			t.Fatalf("track numbering should restart at 1, got %q", line)
		}
	}
}

func TestRenderBlocklistSingleEntryFooter(t *testing.T) {
	out := renderBlocklist([]blocklist.List{blocklist.ListArtists}, map[blocklist.List][]string{
		blocklist.ListArtists: {"Velvet Sundown"},
	})
	requireContains(t, out, "1 entry")
}
