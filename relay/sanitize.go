package relay

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips tag-like sequences from user supplied text and trims the result.
// Applying it twice gives the same result as applying it once.
func Sanitize(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}
