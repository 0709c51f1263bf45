package logging

import "strings"

// formatSubject builds the "component [content_id]" prefix used in console output.
func formatSubject(component, contentID string) string {
	component = strings.TrimSpace(component)
	contentID = strings.TrimSpace(contentID)
	switch {
	case component != "" && contentID != "":
		return component + " [" + shortID(contentID) + "]"
	case component != "":
		return component
	case contentID != "":
		return "[" + shortID(contentID) + "]"
	}
	return ""
}

// shortID trims sha1-style content ids so console lines stay readable.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
