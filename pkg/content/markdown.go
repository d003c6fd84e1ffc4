package content

import (
	"regexp"
	"strings"
)

var (
	reExcessNewlines  = regexp.MustCompile(`\n{3,}`)
	reEmptyLinks      = regexp.MustCompile(`\[\]\([^)]*\)`)
	reBareListMarkers = regexp.MustCompile(`(?m)^\s*[-*+]\s*$`)
	reTrailingSpace   = regexp.MustCompile(`(?m)[ \t]+$`)
)

// cleanMarkdown normalizes converter output: collapses runs of blank lines,
// drops empty link syntax and bare list markers, strips trailing whitespace
func cleanMarkdown(markdown string) string {
	markdown = reEmptyLinks.ReplaceAllString(markdown, "")
	markdown = reBareListMarkers.ReplaceAllString(markdown, "")
	markdown = reTrailingSpace.ReplaceAllString(markdown, "")
	markdown = reExcessNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}
