package contentcache

import "time"

// Namespace partitions raw payloads by ingestor.
type Namespace string

const (
	NamespaceBlog  Namespace = "blog"
	NamespaceVideo Namespace = "video"
)

// RawBlog is the cached normalised form of a blog article.
type RawBlog struct {
	ContentHash string    `json:"content_hash"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	PublishedAt string    `json:"published_at,omitempty"`
	OriginalURL string    `json:"original_url"`
	Text        string    `json:"text"`
	Language    string    `json:"language,omitempty"`
	Categories  []string  `json:"categories"`
	Tags        []string  `json:"tags"`
	CachedAt    time.Time `json:"cached_at"`
}

// RawVideo is the cached normalised form of a video and its transcript.
type RawVideo struct {
	ContentHash         string    `json:"content_hash"`
	Title               string    `json:"title"`
	ChannelName         string    `json:"channel_name,omitempty"`
	ChannelID           string    `json:"channel_id,omitempty"`
	PublishedAt         string    `json:"published_at,omitempty"`
	OriginalURL         string    `json:"original_url"`
	Transcript          string    `json:"transcript,omitempty"`
	TranscriptAvailable bool      `json:"transcript_available"`
	TranscriptError     string    `json:"transcript_error,omitempty"`
	Language            string    `json:"language,omitempty"`
	Categories          []string  `json:"categories"`
	Tags                []string  `json:"tags"`
	CachedAt            time.Time `json:"cached_at"`
}

// Usage reports token consumption for one summarization call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SummaryPayload is a cached summary. It is valid only while ContentHash
// matches the raw payload and PromptVersion matches the active prompt.
type SummaryPayload struct {
	Summary       string    `json:"summary"`
	Model         string    `json:"model"`
	PromptVersion int       `json:"prompt_version"`
	ContentHash   string    `json:"content_hash"`
	Usage         *Usage    `json:"usage,omitempty"`
	CachedAt      time.Time `json:"cached_at"`
}

// IsValidFor reports whether the summary was produced from contentHash with promptVersion.
func (s SummaryPayload) IsValidFor(contentHash string, promptVersion int) bool {
	return s.ContentHash != "" && s.ContentHash == contentHash && s.PromptVersion == promptVersion
}

func (p *RawBlog) normalize() {
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

func (p *RawVideo) normalize() {
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
