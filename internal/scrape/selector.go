package scrape

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	defaultLinkSelectors = []string{
		"article h1 a",
		"article h2 a",
		"article .title a",
		".post-title a",
		".entry-title a",
		"main h2 a",
		"main h3 a",
		".content h2 a",
	}
	defaultDateSelectors = []string{
		"time[datetime]",
		"meta[property='article:published_time']",
		"meta[name='date']",
		"meta[name='pubdate']",
	}
	defaultAuthorSelectors = []string{
		"meta[name='author']",
		"meta[property='article:author']",
		".author",
		".post-author",
	}
	defaultStripSelectors = "script, style, nav, header, footer, aside, .sidebar"

	nonContentTokens = []string{
		"privacy", "terms", "about", "contact", "login", "search", "tag",
		"category", "rss", "feed", "subscribe", "share", "comment", "?",
	}
)

const (
	minParagraphChars = 40
	maxParagraphs     = 80
	minTitleWords     = 3
)

// SelectorStrategy extracts links, dates, authors and paragraph text with CSS
// selector lists. Zero-value fields fall back to the default lists.
type SelectorStrategy struct {
	LinkSelectors   []string
	DateSelectors   []string
	AuthorSelectors []string
}

// ExtractCandidateLinks walks the link selectors in order, resolving hrefs
// against the page URL and keeping links that look like articles.
func (s SelectorStrategy) ExtractCandidateLinks(page Page, limit int) []Link {
	if page.Doc == nil || limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var links []Link
	for _, selector := range orDefault(s.LinkSelectors, defaultLinkSelectors) {
		page.Doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			href = strings.TrimSpace(href)
			title := collapseSpace(sel.Text())
			if href == "" || title == "" || strings.HasPrefix(href, "#") {
				return true
			}
			full := resolve(page.URL, href)
			if full == "" {
				return true
			}
			if _, dup := seen[full]; dup {
				return true
			}
			seen[full] = struct{}{}
			if looksLikeArticle(href, title, page.URL) {
				links = append(links, Link{Title: title, URL: full})
			}
			return len(links) < limit
		})
		if len(links) >= limit {
			break
		}
	}
	return links
}

// ExtractPublishDate returns the first date hint found, unparsed.
func (s SelectorStrategy) ExtractPublishDate(page Page) string {
	if page.Doc == nil {
		return ""
	}
	for _, selector := range orDefault(s.DateSelectors, defaultDateSelectors) {
		sel := page.Doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v, ok := sel.Attr("datetime"); ok {
			return strings.TrimSpace(v)
		}
		if v, ok := sel.Attr("content"); ok {
			return strings.TrimSpace(v)
		}
		if text := collapseSpace(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

// ExtractAuthor returns the first author hint found.
func (s SelectorStrategy) ExtractAuthor(page Page) string {
	if page.Doc == nil {
		return ""
	}
	for _, selector := range orDefault(s.AuthorSelectors, defaultAuthorSelectors) {
		sel := page.Doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v, ok := sel.Attr("content"); ok {
			return strings.TrimSpace(v)
		}
		if text := collapseSpace(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

// ExtractText joins the first paragraphs longer than 40 characters after
// dropping page chrome.
func (s SelectorStrategy) ExtractText(page Page) (string, error) {
	if page.Doc == nil {
		return "", nil
	}
	body := page.Doc.Selection.Clone()
	body.Find(defaultStripSelectors).Remove()

	var paragraphs []string
	body.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapseSpace(sel.Text())
		if utf8.RuneCountInString(text) > minParagraphChars {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < maxParagraphs
	})
	return strings.Join(paragraphs, "\n\n"), nil
}

func looksLikeArticle(href, title string, base *url.URL) bool {
	lowered := strings.ToLower(href)
	for _, token := range nonContentTokens {
		if strings.Contains(lowered, token) {
			return false
		}
	}
	if len(strings.Fields(title)) < minTitleWords {
		return false
	}
	if strings.HasPrefix(lowered, "http") && base != nil {
		parsed, err := url.Parse(href)
		if err != nil || parsed.Host != base.Host {
			return false
		}
	}
	return true
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
