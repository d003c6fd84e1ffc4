// Package content converts web pages to readable Markdown. Metadata is
// pulled through ordered selector candidate lists, the main content
// container is chosen heuristically and non-content elements are stripped
// before conversion.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

// ErrConversion marks any fetch or parse failure during page conversion
var ErrConversion = errors.New("content conversion failed")

// Fetcher retrieves a remote resource's raw body
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Result is the normalized outcome of converting a page
type Result struct {
	Title       string `json:"title"`
	Content     string `json:"content"` // markdown
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Metadata holds social-card page metadata
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
}

// rule is one candidate in a metadata extraction chain. attr names the
// attribute to read; empty attr reads the element's text.
type rule struct {
	selector string
	attr     string
}

// ordered candidate lists per field, first non-empty match wins
var (
	titleRules = []rule{
		{`meta[property="og:title"]`, "content"},
		{`meta[name="twitter:title"]`, "content"},
		{"h1", ""},
		{"title", ""},
		{".entry-title", ""},
		{".post-title", ""},
		{".article-title", ""},
	}

	authorRules = []rule{
		{`meta[name="author"]`, "content"},
		{`meta[property="article:author"]`, "content"},
		{".author", ""},
		{".byline", ""},
		{`[rel="author"]`, ""},
	}

	dateRules = []rule{
		{`meta[property="article:published_time"]`, "content"},
		{`meta[name="date"]`, "content"},
		{"time[datetime]", "datetime"},
		{".published", ""},
		{".date", ""},
	}

	summaryRules = []rule{
		{`meta[name="description"]`, "content"},
		{`meta[property="og:description"]`, "content"},
		{`meta[name="twitter:description"]`, "content"},
	}
)

// unwantedSelectors name elements stripped from the tree before content
// extraction, so removed elements never leak into the output
var unwantedSelectors = []string{
	"script",
	"style",
	"nav",
	"header",
	"footer",
	"aside",
	".advertisement",
	".ads",
	".social-share",
	".comments",
	".related-posts",
	".sidebar",
	".popup",
	".modal",
	".newsletter-signup",
}

// contentSelectors name common main-content containers, most specific first
var contentSelectors = []string{
	"article",
	"main",
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"#content",
	".post-body",
}

// Extractor converts URLs to readable markdown articles
type Extractor struct {
	fetcher    Fetcher
	conv       *converter.Converter
	minTextLen int
}

// NewExtractor creates a content extractor. minTextLen is the minimum text
// length for a candidate container to qualify as main content.
func NewExtractor(fetcher Fetcher, minTextLen int) *Extractor {
	if minTextLen <= 0 {
		minTextLen = 100
	}
	return &Extractor{
		fetcher: fetcher,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		minTextLen: minTextLen,
	}
}

// Extract fetches a page and converts it to a markdown article. Any fetch
// or parse failure surfaces as ErrConversion; no partial result is returned.
func (e *Extractor) Extract(ctx context.Context, url string) (*Result, error) {
	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrConversion, err)
	}

	// metadata first, the strip pass below mutates the tree
	result := &Result{
		Title:       firstMatch(doc, titleRules),
		Author:      firstMatch(doc, authorRules),
		PublishDate: firstMatch(doc, dateRules),
		Summary:     firstMatch(doc, summaryRules),
	}
	if result.Title == "" {
		result.Title = "Untitled"
	}

	removeUnwanted(doc)
	sel := e.mainContent(doc)

	// second strip pass at conversion time as a safety net
	sel.Find("script,style,nav,header,footer,aside").Remove()
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, _ := img.Attr("src"); src == "" {
			img.Remove()
		}
	})

	htmlContent, err := goquery.OuterHtml(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: render selection: %v", ErrConversion, err)
	}

	markdown, err := e.conv.ConvertString(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("%w: convert to markdown: %v", ErrConversion, err)
	}

	result.Content = cleanMarkdown(markdown)
	return result, nil
}

// Metadata fetches social-card metadata for a URL. Failures yield an empty
// result rather than an error; metadata is best-effort by nature.
func (e *Extractor) Metadata(ctx context.Context, url string) *Metadata {
	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return &Metadata{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return &Metadata{}
	}

	return &Metadata{
		Title: firstMatch(doc, []rule{
			{`meta[property="og:title"]`, "content"},
			{"title", ""},
		}),
		Description: firstMatch(doc, []rule{
			{`meta[property="og:description"]`, "content"},
			{`meta[name="description"]`, "content"},
		}),
		Image:    firstMatch(doc, []rule{{`meta[property="og:image"]`, "content"}}),
		SiteName: firstMatch(doc, []rule{{`meta[property="og:site_name"]`, "content"}}),
	}
}

// firstMatch tries each rule in order and returns the first non-empty value
func firstMatch(doc *goquery.Document, rules []rule) string {
	for _, r := range rules {
		sel := doc.Find(r.selector).First()
		if sel.Length() == 0 {
			continue
		}
		var value string
		if r.attr != "" {
			value, _ = sel.Attr(r.attr)
		}
		if value == "" {
			value = sel.Text()
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// removeUnwanted strips non-content elements from the document
func removeUnwanted(doc *goquery.Document) {
	for _, selector := range unwantedSelectors {
		doc.Find(selector).Remove()
	}
}

// mainContent picks the first qualifying content container, falling back to
// the document body when nothing is long enough
func (e *Extractor) mainContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 && len(strings.TrimSpace(sel.Text())) > e.minTextLen {
			return sel
		}
	}
	return doc.Find("body")
}
