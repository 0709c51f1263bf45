package youtube

import (
	"regexp"
	"strings"
)

var (
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#\s]*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
	}
	bareVideoID   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelPathID = regexp.MustCompile(`channel/(UC[A-Za-z0-9_-]{22})(?:[/?#]|$)`)
	bareChannelID = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExtractVideoID returns the 11-character video id carried by a watch, short,
// embed or youtu.be URL, or a bare id. It returns "" when none is present.
func ExtractVideoID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if bareVideoID.MatchString(value) {
		return value
	}
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(value); m != nil {
			return m[1]
		}
	}
	return ""
}

// ChannelIDFromURL extracts a channel id without network access: either a
// channel/UC... path segment or a bare 24-character UC id.
func ChannelIDFromURL(value string) string {
	value = strings.TrimSpace(value)
	if bareChannelID.MatchString(value) {
		return value
	}
	if m := channelPathID.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return ""
}

// HandleFromURL returns the @handle of a channel URL without the "@", or ""
// when the URL has none.
func HandleFromURL(value string) string {
	_, after, ok := strings.Cut(value, "@")
	if !ok {
		return ""
	}
	if idx := strings.IndexAny(after, "/?#"); idx >= 0 {
		after = after[:idx]
	}
	return strings.TrimSpace(after)
}
