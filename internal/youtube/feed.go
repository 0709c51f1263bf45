package youtube

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"

	"readlist/internal/services"
	"readlist/internal/textutil"
)

// parseChannelFeed reads the Atom feed published for each channel. Video ids
// come from the yt:videoId extension, or from the entry link when absent.
func parseChannelFeed(body []byte, channelID string, limit int) ([]RemoteVideo, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "youtube", "parse channel feed", channelID, err)
	}
	feedAuthor := ""
	if len(feed.Authors) > 0 && feed.Authors[0] != nil {
		feedAuthor = feed.Authors[0].Name
	}

	videos := make([]RemoteVideo, 0, min(limit, len(feed.Items)))
	for _, item := range feed.Items {
		if len(videos) >= limit {
			break
		}
		if item == nil {
			continue
		}
		videoID := extensionValue(item, "yt", "videoId")
		if videoID == "" {
			videoID = ExtractVideoID(item.Link)
		}
		title := textutil.PlainText(item.Title)
		if videoID == "" || title == "" {
			continue
		}
		author := feedAuthor
		if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
			author = item.Authors[0].Name
		}
		published := strings.TrimSpace(item.Published)
		if item.PublishedParsed != nil {
			published = textutil.FormatTimestamp(*item.PublishedParsed)
		}
		videos = append(videos, RemoteVideo{
			VideoID:        videoID,
			Title:          title,
			PublishedAt:    published,
			ChannelName:    textutil.PlainText(author),
			ChannelID:      channelID,
			URL:            WatchURL(videoID),
			DiscoveryIndex: len(videos),
		})
	}
	return videos, nil
}

func extensionValue(item *gofeed.Item, namespace, name string) string {
	if item.Extensions == nil {
		return ""
	}
	values := item.Extensions[namespace][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}
