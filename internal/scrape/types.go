package scrape

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Link is a candidate article found on a listing page.
type Link struct {
	Title string
	URL   string
}

// Article is the normalised content of one article page.
type Article struct {
	Title       string
	Text        string
	PublishedAt string
	Author      string
	Language    string
}

// Page is a fetched and parsed HTML document.
type Page struct {
	URL  *url.URL
	HTML string
	Doc  *goquery.Document
}

// Strategy holds the page heuristics used by the Scraper. Implementations must
// not mutate page.Doc.
type Strategy interface {
	ExtractCandidateLinks(page Page, limit int) []Link
	ExtractPublishDate(page Page) string
	ExtractAuthor(page Page) string
	ExtractText(page Page) (string, error)
}
