package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"readlist/internal/textutil"
)

// discoverFeedURL returns the first RSS or Atom feed advertised by the page.
func discoverFeedURL(page Page) string {
	if page.Doc == nil {
		return ""
	}
	var found string
	page.Doc.Find("link[rel='alternate']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		kind := strings.ToLower(sel.AttrOr("type", ""))
		if !strings.Contains(kind, "rss") && !strings.Contains(kind, "atom") {
			return true
		}
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return true
		}
		found = resolve(page.URL, href)
		return found == ""
	})
	return found
}

// looksLikeFeed reports whether body is an XML feed rather than an HTML page.
func looksLikeFeed(contentType string, body []byte) bool {
	contentType = strings.ToLower(contentType)
	if strings.Contains(contentType, "rss") || strings.Contains(contentType, "atom") {
		return true
	}
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	lowered := bytes.ToLower(head)
	return bytes.HasPrefix(lowered, []byte("<?xml")) || bytes.HasPrefix(lowered, []byte("<rss")) || bytes.HasPrefix(lowered, []byte("<feed"))
}

// feedLinks parses an RSS/Atom document into candidate links, newest first as published.
func feedLinks(body []byte, limit int) ([]Link, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	links := make([]Link, 0, limit)
	seen := make(map[string]struct{})
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		title := textutil.PlainText(item.Title)
		if link == "" || title == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, Link{Title: title, URL: link})
		if len(links) >= limit {
			break
		}
	}
	return links, nil
}
