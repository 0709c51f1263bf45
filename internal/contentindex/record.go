package contentindex

import (
	"time"

	"readlist/internal/textutil"
)

// Source types stored on records.
const (
	SourceTypeBlog  = "blog_article"
	SourceTypeVideo = "youtube_video"
)

// Record is the canonical index entry for one content item.
type Record struct {
	ContentID   string    `json:"content_id"`
	SourceType  string    `json:"source_type"`
	Origin      string    `json:"origin,omitempty"`
	OriginalURL string    `json:"original_url"`
	Title       string    `json:"title"`
	SummaryPath string    `json:"summary_path,omitempty"`
	PublishedAt string    `json:"published_at,omitempty"`
	Author      string    `json:"author,omitempty"`
	Categories  []string  `json:"categories"`
	Tags        []string  `json:"tags"`
	RawPath     string    `json:"raw_path,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// BuildRecord returns r stamped with now as its last update time.
func BuildRecord(r Record, now time.Time) Record {
	r.LastUpdated = now.UTC()
	if r.Categories == nil {
		r.Categories = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// Published returns the parsed publish time of the record.
func (r Record) Published() (time.Time, bool) {
	return ParseTimestamp(r.PublishedAt)
}

// ParseTimestamp parses an absolute timestamp in any common layout.
func ParseTimestamp(value string) (time.Time, bool) {
	return textutil.ParseTimestamp(value)
}
