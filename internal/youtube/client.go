package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"readlist/internal/logging"
	"readlist/internal/services"
	"readlist/internal/services/httpfetch"
)

const defaultBaseURL = "https://www.youtube.com"

var channelIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"channelId":"(UC[A-Za-z0-9_-]{22})"`),
	regexp.MustCompile(`"externalId":"(UC[A-Za-z0-9_-]{22})"`),
	regexp.MustCompile(`channel/(UC[A-Za-z0-9_-]{22})`),
}

// Fetcher retrieves documents over HTTP.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (httpfetch.Response, error)
}

// RemoteVideo is a video discovered on a channel feed or page.
type RemoteVideo struct {
	VideoID     string
	Title       string
	PublishedAt string
	ChannelName string
	ChannelID   string
	URL         string
	// DiscoveryIndex is the position at which the video was listed.
	DiscoveryIndex int
}

// VideoMetadata is the watch-page metadata of one video.
type VideoMetadata struct {
	VideoID     string
	Title       string
	ChannelName string
	ChannelID   string
	PublishedAt string
	URL         string
}

// OEmbed is the subset of the oEmbed response used when tracking transcripts.
type OEmbed struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
}

// Client talks to the public YouTube pages and feeds.
type Client struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.baseURL = base
		}
	}
}

// NewClient constructs a Client.
func NewClient(fetcher Fetcher, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		fetcher: fetcher,
		baseURL: defaultBaseURL,
		logger:  logging.NewComponentLogger(logger, "youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveChannelID returns the channel id for a channel URL. Direct id
// patterns are used when present; otherwise the channel page is fetched and
// searched for an embedded id.
func (c *Client) ResolveChannelID(ctx context.Context, channelURL string) (string, error) {
	if id := ChannelIDFromURL(channelURL); id != "" {
		return id, nil
	}
	resp, err := c.fetcher.Get(ctx, channelURL)
	if err != nil {
		return "", fmt.Errorf("resolve channel id: %w", err)
	}
	body := string(resp.Body)
	for _, pattern := range channelIDPatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return m[1], nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "youtube", "resolve channel id", channelURL, nil)
}

// FetchChannelVideos lists up to limit recent uploads. The channel RSS feed
// is tried first; when it fails or is empty the channel videos page is
// scraped instead.
func (c *Client) FetchChannelVideos(ctx context.Context, channelID string, limit int) ([]RemoteVideo, error) {
	if len(channelID) < 6 || limit <= 0 {
		return nil, nil
	}
	logger := c.logger.With(logging.String("channel_id", channelID))

	videos, feedErr := c.feedVideos(ctx, channelID, limit)
	if feedErr != nil {
		logging.WarnWithContext(logger, "channel feed unavailable", "channel_feed_failed",
			logging.Error(feedErr),
			logging.String(logging.FieldImpact, "falling back to channel page"))
	}
	if len(videos) > 0 {
		logger.Debug("channel feed videos", logging.Int("count", len(videos)))
		return videos, nil
	}

	videos, pageErr := c.pageVideos(ctx, channelID, limit)
	if pageErr != nil {
		if feedErr != nil {
			return nil, errors.Join(feedErr, pageErr)
		}
		return nil, pageErr
	}
	logger.Debug("channel page videos", logging.Int("count", len(videos)))
	return videos, nil
}

func (c *Client) feedVideos(ctx context.Context, channelID string, limit int) ([]RemoteVideo, error) {
	feedURL := c.baseURL + "/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
	resp, err := c.fetcher.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return parseChannelFeed(resp.Body, channelID, limit)
}

func (c *Client) pageVideos(ctx context.Context, channelID string, limit int) ([]RemoteVideo, error) {
	pageURL := c.baseURL + "/channel/" + url.PathEscape(channelID) + "/videos?view=0&sort=dd&flow=grid"
	resp, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch channel page: %w", err)
	}
	return parseChannelPage(string(resp.Body), channelID, limit)
}

// FetchVideoMetadata scrapes the watch page of videoID. ok is false when the
// video does not exist or the page carries no title.
func (c *Client) FetchVideoMetadata(ctx context.Context, videoID string) (VideoMetadata, bool, error) {
	if videoID == "" {
		return VideoMetadata{}, false, nil
	}
	resp, err := c.fetcher.Get(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return VideoMetadata{}, false, nil
		}
		return VideoMetadata{}, false, fmt.Errorf("fetch watch page: %w", err)
	}
	meta, err := parseWatchPage(string(resp.Body), videoID)
	if err != nil {
		return VideoMetadata{}, false, err
	}
	return meta, meta.Title != "", nil
}

// FetchOEmbed returns oEmbed metadata for a video URL.
func (c *Client) FetchOEmbed(ctx context.Context, videoURL string) (OEmbed, error) {
	query := url.Values{"url": {videoURL}, "format": {"json"}}
	resp, err := c.fetcher.Get(ctx, c.baseURL+"/oembed?"+query.Encode())
	if err != nil {
		return OEmbed{}, fmt.Errorf("fetch oembed: %w", err)
	}
	var out OEmbed
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return OEmbed{}, services.Wrap(services.ErrValidation, "youtube", "decode oembed", videoURL, err)
	}
	return out, nil
}
