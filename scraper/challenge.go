package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Structural signatures of the bot-mitigation interstitial. The page shape
// has changed over time, so several probes are kept.
var challengeProbes = []string{
	"form#challenge-form",
	"#cf-chl-widget",
	"div.cf-browser-verification",
	"div#challenge-stage",
}

func isChallenge(doc *goquery.Document) bool {
	for _, probe := range challengeProbes {
		if doc.Find(probe).Length() > 0 {
			return true
		}
	}
	return strings.Contains(doc.Find("title").First().Text(), "Just a moment")
}
