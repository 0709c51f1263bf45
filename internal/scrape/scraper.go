package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"readlist/internal/language"
	"readlist/internal/logging"
	"readlist/internal/services/httpfetch"
	"readlist/internal/textutil"
)

// Fetcher retrieves documents over HTTP.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (httpfetch.Response, error)
}

// Scraper implements the blog fetch capabilities over a Strategy.
type Scraper struct {
	fetcher  Fetcher
	strategy Strategy
	detector LanguageDetector
	logger   *slog.Logger
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithStrategy replaces the default selector strategy.
func WithStrategy(strategy Strategy) Option {
	return func(s *Scraper) {
		if strategy != nil {
			s.strategy = strategy
		}
	}
}

// WithLanguageDetector enables language detection on article text.
func WithLanguageDetector(detector LanguageDetector) Option {
	return func(s *Scraper) {
		s.detector = detector
	}
}

// New returns a Scraper using fetcher for HTTP.
func New(fetcher Fetcher, logger *slog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:  fetcher,
		strategy: SelectorStrategy{},
		logger:   logging.NewComponentLogger(logger, "scrape"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchRecentLinks returns up to limit article links from a blog listing page.
// Feed documents are read directly; HTML pages with no matching links fall
// back to their advertised feed.
func (s *Scraper) FetchRecentLinks(ctx context.Context, pageURL string, limit int) ([]Link, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if looksLikeFeed(resp.ContentType, resp.Body) {
		return feedLinks(resp.Body, limit)
	}

	page, err := newPage(resp)
	if err != nil {
		return nil, err
	}
	links := s.strategy.ExtractCandidateLinks(page, limit)
	if len(links) > 0 {
		return links, nil
	}

	feedURL := discoverFeedURL(page)
	if feedURL == "" {
		return nil, nil
	}
	s.logger.Debug("no article links on page, following feed",
		logging.String(logging.FieldSourceURL, pageURL),
		logging.String("feed_url", feedURL))
	feedResp, err := s.fetcher.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch advertised feed: %w", err)
	}
	return feedLinks(feedResp.Body, limit)
}

// FetchArticle downloads and normalises one article. The publish date is
// converted to RFC 3339 when it parses; otherwise the raw hint is kept.
func (s *Scraper) FetchArticle(ctx context.Context, articleURL string) (Article, error) {
	resp, err := s.fetcher.Get(ctx, articleURL)
	if err != nil {
		return Article{}, err
	}
	page, err := newPage(resp)
	if err != nil {
		return Article{}, err
	}

	text, err := s.strategy.ExtractText(page)
	if err != nil {
		return Article{}, fmt.Errorf("extract article text: %w", err)
	}
	article := Article{
		Title:       textutil.PlainText(page.Doc.Find("title").First().Text()),
		Text:        strings.TrimSpace(text),
		PublishedAt: NormalizeDate(s.strategy.ExtractPublishDate(page)),
		Author:      textutil.PlainText(s.strategy.ExtractAuthor(page)),
		Language:    pageLanguage(page),
	}
	if s.detector != nil && article.Text != "" {
		if detected := s.detector.Detect(article.Text); detected != "" {
			article.Language = detected
		}
	}
	return article, nil
}

func newPage(resp httpfetch.Response) (Page, error) {
	html := string(resp.Body)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	pageURL, err := url.Parse(resp.URL)
	if err != nil {
		return Page{}, fmt.Errorf("parse page url: %w", err)
	}
	return Page{URL: pageURL, HTML: html, Doc: doc}, nil
}

func pageLanguage(page Page) string {
	return language.ToISO2(page.Doc.Find("html").AttrOr("lang", ""))
}

// NormalizeDate converts a scraped date hint to RFC 3339 in UTC. Values that
// do not parse are returned trimmed.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, ok := textutil.ParseTimestamp(value); ok {
		return textutil.FormatTimestamp(t)
	}
	return value
}
