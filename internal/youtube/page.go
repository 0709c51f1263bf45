package youtube

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"readlist/internal/services"
	"readlist/internal/textutil"
)

var initialDataMarker = regexp.MustCompile(`ytInitialData"?\]?\s*=\s*`)

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
	SimpleText string `json:"simpleText"`
}

func (t textRuns) String() string {
	if len(t.Runs) > 0 {
		return strings.TrimSpace(t.Runs[0].Text)
	}
	return strings.TrimSpace(t.SimpleText)
}

type videoRenderer struct {
	VideoID           string   `json:"videoId"`
	Title             textRuns `json:"title"`
	OwnerText         textRuns `json:"ownerText"`
	PublishedTimeText textRuns `json:"publishedTimeText"`
}

type initialData struct {
	Contents struct {
		TwoColumn struct {
			Tabs []struct {
				TabRenderer *struct {
					Selected bool `json:"selected"`
					Content  struct {
						RichGrid *struct {
							Contents []struct {
								RichItem struct {
									Content struct {
										Video *videoRenderer `json:"videoRenderer"`
									} `json:"content"`
								} `json:"richItemRenderer"`
							} `json:"contents"`
						} `json:"richGridRenderer"`
						SectionList *struct {
							Contents []struct {
								ItemSection *struct {
									Contents []struct {
										Grid *struct {
											Items []struct {
												Video *videoRenderer `json:"gridVideoRenderer"`
											} `json:"items"`
										} `json:"gridRenderer"`
									} `json:"contents"`
								} `json:"itemSectionRenderer"`
							} `json:"contents"`
						} `json:"sectionListRenderer"`
					} `json:"content"`
				} `json:"tabRenderer"`
			} `json:"tabs"`
		} `json:"twoColumnBrowseResultsRenderer"`
	} `json:"contents"`
}

// extractInitialData decodes the ytInitialData object embedded in a page.
func extractInitialData(html string) (initialData, bool) {
	var data initialData
	loc := initialDataMarker.FindStringIndex(html)
	if loc == nil {
		return data, false
	}
	rest := html[loc[1]:]
	if !strings.HasPrefix(rest, "{") {
		return data, false
	}
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&data); err != nil {
		return data, false
	}
	return data, true
}

// parseChannelPage reads videos from the selected rich grid tab, falling back
// to the legacy grid layout of the first tab.
func parseChannelPage(html, channelID string, limit int) ([]RemoteVideo, error) {
	data, ok := extractInitialData(html)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "youtube", "parse channel page", "ytInitialData not found for "+channelID, nil)
	}
	tabs := data.Contents.TwoColumn.Tabs

	var videos []RemoteVideo
	add := func(r *videoRenderer, order int) bool {
		if r == nil || r.VideoID == "" {
			return true
		}
		videos = append(videos, RemoteVideo{
			VideoID:        r.VideoID,
			Title:          r.Title.String(),
			PublishedAt:    r.PublishedTimeText.String(),
			ChannelName:    r.OwnerText.String(),
			ChannelID:      channelID,
			URL:            WatchURL(r.VideoID),
			DiscoveryIndex: order,
		})
		return len(videos) < limit
	}

	for _, tab := range tabs {
		if tab.TabRenderer == nil || !tab.TabRenderer.Selected || tab.TabRenderer.Content.RichGrid == nil {
			continue
		}
		for order, item := range tab.TabRenderer.Content.RichGrid.Contents {
			if !add(item.RichItem.Content.Video, order) {
				return videos, nil
			}
		}
	}
	if len(videos) > 0 || len(tabs) == 0 || tabs[0].TabRenderer == nil || tabs[0].TabRenderer.Content.SectionList == nil {
		return videos, nil
	}

	for _, section := range tabs[0].TabRenderer.Content.SectionList.Contents {
		if section.ItemSection == nil {
			continue
		}
		for _, content := range section.ItemSection.Contents {
			if content.Grid == nil {
				continue
			}
			for order, item := range content.Grid.Items {
				if !add(item.Video, order) {
					return videos, nil
				}
			}
		}
	}
	return videos, nil
}

// parseWatchPage reads title, channel and publish date from a watch page.
func parseWatchPage(html, videoID string) (VideoMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return VideoMetadata{}, services.Wrap(services.ErrValidation, "youtube", "parse watch page", videoID, err)
	}
	meta := VideoMetadata{VideoID: videoID, URL: WatchURL(videoID)}

	meta.Title = textutil.PlainText(doc.Find("meta[name='title']").AttrOr("content", ""))
	if meta.Title == "" {
		meta.Title = textutil.PlainText(doc.Find("title").First().Text())
		meta.Title = strings.TrimSpace(strings.TrimSuffix(meta.Title, "- YouTube"))
	}
	meta.ChannelName = textutil.PlainText(doc.Find("link[itemprop='name']").AttrOr("content", ""))

	if published := strings.TrimSpace(doc.Find("meta[itemprop='datePublished']").AttrOr("content", "")); published != "" {
		meta.PublishedAt = published
		if t, ok := textutil.ParseTimestamp(published); ok {
			meta.PublishedAt = textutil.FormatTimestamp(t)
		}
	}

	meta.ChannelID = strings.TrimSpace(doc.Find("meta[itemprop='channelId']").AttrOr("content", ""))
	if meta.ChannelID == "" {
		if m := channelIDPatterns[0].FindStringSubmatch(html); m != nil {
			meta.ChannelID = m[1]
		}
	}
	return meta, nil
}
