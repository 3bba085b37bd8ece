package player

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors used against the host's player bar markup.
const (
	selectorTitle    = "ytmusic-player-bar .title"
	selectorByline   = "ytmusic-player-bar .byline"
	selectorDislike  = ".middle-controls-buttons .dislike"
	selectorDislike2 = "ytmusic-player-bar .dislike"
	selectorMedia    = "video"
)

// ParsePlayerBar turns a player-bar HTML snapshot into a State. Missing
// elements leave the corresponding fields empty; only unparsable markup is
// an error.
func ParsePlayerBar(html string) (State, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return State{}, fmt.Errorf("parse player bar: %w", err)
	}

	var state State
	state.Title = firstText(doc, selectorTitle, ".title")
	state.ArtistLine = firstText(doc, selectorByline, ".byline")

	dislike := doc.Find(selectorDislike).First()
	if dislike.Length() == 0 {
		dislike = doc.Find(selectorDislike2).First()
	}
	if dislike.Length() > 0 {
		state.FeedbackPresent = true
		state.FeedbackActive = pressed(dislike) || pressed(dislike.Find("button").First())
	}

	if media := doc.Find(selectorMedia).First(); media.Length() > 0 {
		state.MediaPresent = true
		_, state.MediaEnded = media.Attr("data-ended")
	}
	return state, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			return strings.TrimSpace(node.Text())
		}
	}
	return ""
}

func pressed(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	value, ok := sel.Attr("aria-pressed")
	return ok && value == "true"
}
