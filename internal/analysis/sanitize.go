package analysis

import (
	"regexp"
	"strings"
)

// PlaceholderToken is what upstream templating leaves behind for missing values.
const PlaceholderToken = "undefined"

// Pass is one text-cleanup step.
type Pass func(string) string

// DefaultPasses is the cleanup pipeline applied to raw narratives, in order.
var DefaultPasses = []Pass{
	RemoveToken(PlaceholderToken),
	UnescapeNewlines,
	strings.TrimSpace,
	CollapseToken(PlaceholderToken),
}

// Sanitize runs the default pipeline over a raw narrative.
func Sanitize(raw string) string {
	return Apply(raw, DefaultPasses...)
}

// Apply runs passes over s in order.
func Apply(s string, passes ...Pass) string {
	for _, p := range passes {
		s = p(s)
	}
	return s
}

// RemoveToken deletes every occurrence of token, repeating until none is left
// (removal can splice a new occurrence together).
func RemoveToken(token string) Pass {
	return func(s string) string {
		if token == "" {
			return s
		}
		for strings.Contains(s, token) {
			s = strings.ReplaceAll(s, token, "")
		}
		return s
	}
}

// UnescapeNewlines turns the two-character sequence `\n` into a real newline.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// CollapseToken deletes token together with the whitespace around it.
func CollapseToken(token string) Pass {
	if token == "" {
		return func(s string) string { return s }
	}
	re := regexp.MustCompile(`\s*` + regexp.QuoteMeta(token) + `\s*`)
	return func(s string) string {
		for re.MatchString(s) {
			s = re.ReplaceAllString(s, "")
		}
		return s
	}
}
