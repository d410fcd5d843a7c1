package document

import (
	"regexp"
	"strings"
)

var (
	tagRegex = regexp.MustCompile(`<.*?>`)
	urlRegex = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Normalize removes HTML-like tags and URLs, then trims surrounding
// whitespace. Tags are matched non-greedily on a single line with no
// nesting awareness.
func Normalize(text string) string {
	text = tagRegex.ReplaceAllString(text, "")
	text = urlRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
