package domain

// reserved feed ids for articles that don't come from a subscribed feed.
// articles with these ids persist like any other article and are never
// garbage-collected.
const (
	FeedIDManual    = "manual"     // added via URL-to-markdown conversion
	FeedIDAISummary = "ai-summary" // generated by the summarizer
)

// Feed represents a subscribed RSS/Atom source
type Feed struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	LastUpdated    int64  `json:"lastUpdated"` // epoch milliseconds
	UpdateInterval int    `json:"updateInterval"`
	Favicon        string `json:"favicon,omitempty"`
	IsActive       bool   `json:"isActive"`
}

// ParsedFeed is the normalized result of parsing a feed document
type ParsedFeed struct {
	Title       string
	Description string
	Link        string
	Items       []ParsedItem
}

// ParsedItem is a single normalized feed entry
type ParsedItem struct {
	Title       string
	Link        string
	Description string
	Content     string
	Published   int64 // epoch milliseconds
	Author      string
	GUID        string
}

// FeedCategory groups feeds under a named label. the feed-to-category
// relation is by Feed.Category string match; FeedIDs is informational and
// not guaranteed to stay synchronized.
type FeedCategory struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	FeedIDs []string `json:"feedIds"`
}
