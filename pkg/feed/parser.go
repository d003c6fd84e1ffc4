// Package feed parses RSS and Atom feeds into normalized records.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/readkeep/readkeep/pkg/domain"
)

// parse failure kinds, distinguishable with errors.Is
var (
	ErrParse             = errors.New("malformed feed document")
	ErrUnsupportedFormat = errors.New("unsupported feed format")
)

// Fetcher retrieves a remote resource's raw body
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Parser parses RSS/Atom feeds fetched through the proxy
type Parser struct {
	fetcher Fetcher
	now     func() time.Time
}

// NewParser creates a new feed parser
func NewParser(fetcher Fetcher) *Parser {
	return &Parser{fetcher: fetcher, now: time.Now}
}

// Parse fetches and parses a feed from the given URL. A missing field never
// aborts parsing of the rest of the item; only an unparseable document fails.
func (p *Parser) Parse(ctx context.Context, url string) (*domain.ParsedFeed, error) {
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, fmt.Errorf("parse feed %s: %w", url, ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("parse feed %s: %w: %v", url, ErrParse, err)
	}

	result := &domain.ParsedFeed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		Items:       make([]domain.ParsedItem, 0, len(parsed.Items)),
	}
	if result.Title == "" {
		result.Title = "Untitled Feed"
	}

	for _, item := range parsed.Items {
		result.Items = append(result.Items, p.parseItem(item))
	}

	return result, nil
}

// parseItem normalizes a single feed entry. every field is independently
// optional.
func (p *Parser) parseItem(item *gofeed.Item) domain.ParsedItem {
	parsed := domain.ParsedItem{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
	}

	if parsed.Title == "" {
		parsed.Title = "Untitled"
	}

	// prefer the richer content:encoded payload, fall back to description
	if parsed.Content == "" {
		parsed.Content = item.Description
	}

	// prefer dc:creator over the free-text author field
	switch {
	case item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0:
		parsed.Author = item.DublinCoreExt.Creator[0]
	case item.Author != nil:
		parsed.Author = item.Author.Name
	}

	// published, then updated, then "now" - an unparseable date never fails
	// the item
	switch {
	case item.PublishedParsed != nil:
		parsed.Published = item.PublishedParsed.UnixMilli()
	case item.UpdatedParsed != nil:
		parsed.Published = item.UpdatedParsed.UnixMilli()
	default:
		parsed.Published = p.now().UnixMilli()
	}

	if item.GUID != "" {
		parsed.GUID = item.GUID
	} else {
		parsed.GUID = item.Link
	}

	return parsed
}

// ValidateFeedURL reports whether the URL serves a parseable feed
func (p *Parser) ValidateFeedURL(ctx context.Context, url string) bool {
	_, err := p.Parse(ctx, url)
	return err == nil
}
