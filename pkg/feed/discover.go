package feed

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverFeedURLs scans a website's HTML head for advertised RSS/Atom feeds
// and returns their absolute URLs. Errors and pages without feed links both
// yield an empty slice.
func (p *Parser) DiscoverFeedURLs(ctx context.Context, websiteURL string) []string {
	body, err := p.fetcher.Fetch(ctx, websiteURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(websiteURL)
	if err != nil {
		return nil
	}

	var feedURLs []string
	doc.Find(`link[type="application/rss+xml"], link[type="application/atom+xml"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		feedURLs = append(feedURLs, base.ResolveReference(ref).String())
	})

	return feedURLs
}
