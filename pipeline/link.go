package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// GrowwLink builds the external deep link for a symbol from its company
// display name: lowercased, "limited" shortened to "ltd", punctuation
// stripped, spaces hyphenated. When the name is unavailable the link falls
// back to a ticker search.
func GrowwLink(ticker, companyName string) string {
	if companyName == "" || companyName == "NA" {
		return "https://groww.in/search?q=" + url.QueryEscape(ticker)
	}

	slug := strings.ToLower(companyName)
	slug = strings.ReplaceAll(slug, " limited", " ltd")
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(strings.TrimSpace(slug), " ", "-")
	slug = slugCollapse.ReplaceAllString(slug, "-")

	return "https://groww.in/stocks/" + slug + "?t=" + ticker
}
