package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"readlist/internal/textutil"
)

var relativeAgo = regexp.MustCompile(`^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)

var unitDurations = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// isAbsoluteDate reports whether value parses as an absolute timestamp.
func isAbsoluteDate(value string) bool {
	_, ok := textutil.ParseTimestamp(value)
	return ok
}

// ResolveRelativeDate converts relative publish text such as "3 weeks ago"
// or "yesterday" into an RFC 3339 timestamp measured from now. Months count
// as 30 days and years as 365.
func ResolveRelativeDate(value string, now time.Time) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(value))
	now = now.UTC()
	switch text {
	case "":
		return "", false
	case "just now", "moments ago", "today":
		return textutil.FormatTimestamp(now), true
	case "yesterday":
		return textutil.FormatTimestamp(now.Add(-24 * time.Hour)), true
	}
	// Channel pages prefix re-uploads and streams, e.g. "Streamed 2 days ago".
	text = strings.TrimPrefix(text, "streamed ")
	m := relativeAgo.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	return textutil.FormatTimestamp(now.Add(-time.Duration(amount) * unitDurations[m[2]])), true
}
