// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	spaceRunRegex  = regexp.MustCompile(`[ \t]+`)
	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", "\"", "&#39;", "'")
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and collapses runs of spaces and tabs. Newlines are kept
// so multi-line descriptions survive.
func Text(s string) string {
	return spaceRunRegex.ReplaceAllString(StripHTML(s), " ")
}

// OptionalText sanitizes an optional field. Input that is blank after
// sanitizing becomes nil so it is stored as NULL.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
