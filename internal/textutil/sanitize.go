package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	slugPattern       = regexp.MustCompile(`[^a-z0-9]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	stripPolicy       = bluemonday.StrictPolicy()
	titleCaser        = cases.Title(language.Und)
)

// Slug lowercases value and drops everything that is not an ASCII letter or digit.
func Slug(value string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(value), "")
}

// Title title-cases each word of value.
func Title(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

// Truncate limits value to at most maxRunes runes. Non-positive limits return value unchanged.
func Truncate(value string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(value) <= maxRunes {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxRunes])
}

// PlainText strips all markup from value, unescapes entities and collapses whitespace.
func PlainText(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	stripped := html.UnescapeString(stripPolicy.Sanitize(value))
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(stripped, " "))
}

// DedupeStrings trims values and drops empties and duplicates, keeping first-seen order.
func DedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
