package content

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, url string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func staticFetcher(body string) Fetcher {
	return fetcherFunc(func(context.Context, string) (string, error) { return body, nil })
}

const longFiller = "This paragraph pads the article body well past the one hundred character " +
	"threshold that the main content selection requires before accepting a candidate container."

func TestExtractor_Extract(t *testing.T) {
	page := fmt.Sprintf(`<html>
<head>
	<title>Doc Title</title>
	<meta property="og:title" content="OG Title"/>
	<meta name="author" content="Meta Author"/>
	<meta property="article:published_time" content="2024-03-01T10:00:00Z"/>
	<meta name="description" content="Meta summary"/>
</head>
<body>
	<nav>site navigation</nav>
	<article>
		<h2>Section heading</h2>
		<p>%s</p>
		<script>trackEverything()</script>
		<img alt="chart" src="https://example.com/chart.png"/>
		<img alt="broken" src=""/>
	</article>
	<footer>footer junk</footer>
</body>
</html>`, longFiller)

	e := NewExtractor(staticFetcher(page), 100)
	result, err := e.Extract(context.Background(), "https://example.com/post")
	require.NoError(t, err)

	assert.Equal(t, "OG Title", result.Title, "og:title outranks document title")
	assert.Equal(t, "Meta Author", result.Author)
	assert.Equal(t, "2024-03-01T10:00:00Z", result.PublishDate)
	assert.Equal(t, "Meta summary", result.Summary)

	assert.Contains(t, result.Content, "## Section heading")
	assert.Contains(t, result.Content, longFiller)
	assert.Contains(t, result.Content, "![chart](https://example.com/chart.png)")

	// strip-list content must never appear in the output
	assert.NotContains(t, result.Content, "site navigation")
	assert.NotContains(t, result.Content, "footer junk")
	assert.NotContains(t, result.Content, "trackEverything")
	assert.NotContains(t, result.Content, "![broken]")
}

func TestExtractor_Extract_SelectorPriority(t *testing.T) {
	t.Run("falls through empty candidates", func(t *testing.T) {
		page := fmt.Sprintf(`<html><head><title>Fallback Title</title></head>
			<body><article><p>%s</p></article></body></html>`, longFiller)
		e := NewExtractor(staticFetcher(page), 100)
		result, err := e.Extract(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "Fallback Title", result.Title)
		assert.Empty(t, result.Author)
	})

	t.Run("defaults to Untitled", func(t *testing.T) {
		page := fmt.Sprintf(`<html><body><article><p>%s</p></article></body></html>`, longFiller)
		e := NewExtractor(staticFetcher(page), 100)
		result, err := e.Extract(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "Untitled", result.Title)
	})

	t.Run("time element datetime attribute", func(t *testing.T) {
		page := fmt.Sprintf(`<html><body>
			<time datetime="2023-06-15">June 15</time>
			<article><p>%s</p></article></body></html>`, longFiller)
		e := NewExtractor(staticFetcher(page), 100)
		result, err := e.Extract(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "2023-06-15", result.PublishDate)
	})
}

func TestExtractor_Extract_MainContentFallback(t *testing.T) {
	// article too short to qualify, body fallback picks up everything left
	page := fmt.Sprintf(`<html><body>
		<article>short</article>
		<div>%s</div>
	</body></html>`, longFiller)

	e := NewExtractor(staticFetcher(page), 100)
	result, err := e.Extract(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Contains(t, result.Content, longFiller)
}

func TestExtractor_Extract_Errors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		e := NewExtractor(fetcherFunc(func(context.Context, string) (string, error) {
			return "", fmt.Errorf("unexpected status code 404")
		}), 100)
		_, err := e.Extract(context.Background(), "https://example.com/missing")
		require.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestExtractor_Metadata(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="Shared Title"/>
		<meta property="og:description" content="Shared description"/>
		<meta property="og:image" content="https://example.com/cover.jpg"/>
		<meta property="og:site_name" content="Example Blog"/>
	</head><body></body></html>`

	e := NewExtractor(staticFetcher(page), 100)
	meta := e.Metadata(context.Background(), "https://example.com")
	assert.Equal(t, "Shared Title", meta.Title)
	assert.Equal(t, "Shared description", meta.Description)
	assert.Equal(t, "https://example.com/cover.jpg", meta.Image)
	assert.Equal(t, "Example Blog", meta.SiteName)
}

func TestExtractor_Metadata_FetchError(t *testing.T) {
	e := NewExtractor(fetcherFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("boom")
	}), 100)
	meta := e.Metadata(context.Background(), "https://example.com")
	assert.Equal(t, &Metadata{}, meta)
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses excess newlines",
			input:    "first\n\n\n\n\nsecond",
			expected: "first\n\nsecond",
		},
		{
			name:     "removes empty links",
			input:    "before [](https://example.com) after",
			expected: "before  after",
		},
		{
			name:     "removes bare list markers",
			input:    "- real item\n- \ntext",
			expected: "- real item\n\ntext",
		},
		{
			name:     "strips trailing whitespace",
			input:    "line one   \nline two\t",
			expected: "line one\nline two",
		},
		{
			name:     "trims overall",
			input:    "\n\n  content  \n\n",
			expected: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMarkdown(tt.input))
		})
	}
}

func TestCleanMarkdown_NoDoubleSpacingFromStrippedMarkers(t *testing.T) {
	input := "para\n\n-  \n\n\npara2"
	out := cleanMarkdown(input)
	assert.False(t, strings.Contains(out, "\n\n\n"))
}
