package ingest

import (
	"context"
	"log/slog"
	"time"

	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/logging"
	"readlist/internal/scrape"
	"readlist/internal/services"
	"readlist/internal/sourcelist"
	"readlist/internal/textutil"
)

// LinkLister finds recent article links on a blog page.
type LinkLister interface {
	FetchRecentLinks(ctx context.Context, pageURL string, limit int) ([]scrape.Link, error)
}

// ArticleFetcher downloads one article.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, articleURL string) (scrape.Article, error)
}

// BlogIngestor ingests blog entries.
type BlogIngestor struct {
	cache    *contentcache.Store
	index    *contentindex.Index
	links    LinkLister
	articles ArticleFetcher
	logger   *slog.Logger
	settings settings
}

// NewBlogIngestor constructs a BlogIngestor. The default limit is five
// articles per source.
func NewBlogIngestor(cache *contentcache.Store, index *contentindex.Index, links LinkLister, articles ArticleFetcher, logger *slog.Logger, opts ...Option) *BlogIngestor {
	return &BlogIngestor{
		cache:    cache,
		index:    index,
		links:    links,
		articles: articles,
		logger:   logging.NewComponentLogger(logger, "ingest.blog"),
		settings: newSettings(defaultBlogLimit, opts),
	}
}

// Ingest processes the blog entries among entries. Fetch failures are
// reported per item; only context cancellation stops the batch.
func (b *BlogIngestor) Ingest(ctx context.Context, entries []sourcelist.Entry, report *Report) error {
	pace := &pacer{s: &b.settings}
	for _, entry := range entries {
		if entry.Kind != sourcelist.KindBlog {
			continue
		}
		if err := pace.wait(ctx); err != nil {
			return err
		}
		logger := b.logger.With(logging.String(logging.FieldSourceURL, entry.URL))
		links, err := b.links.FetchRecentLinks(ctx, entry.URL, b.settings.limit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			warn(logger, report, Warning{Source: entry.URL, Stage: StageLinks, Reason: err.Error()}, err)
			continue
		}
		if len(links) == 0 {
			logger.Info("no article links found")
			continue
		}
		for _, link := range links {
			if err := pace.wait(ctx); err != nil {
				return err
			}
			if err := b.ingestArticle(ctx, entry, link, report, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

// ingestArticle returns an error only when ctx is done.
func (b *BlogIngestor) ingestArticle(ctx context.Context, entry sourcelist.Entry, link scrape.Link, report *Report, logger *slog.Logger) error {
	article, err := b.articles.FetchArticle(ctx, link.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		warn(logger, report, Warning{Source: entry.URL, Item: link.URL, Stage: StageArticle, Reason: err.Error()}, err)
		return nil
	}
	if article.Text == "" {
		logger.Debug("article has no text", logging.String("article_url", link.URL))
		return nil
	}

	contentID := textutil.SHA1Hex(link.URL)
	hash := contentcache.Hash(article.Text)
	title := link.Title
	if title == "" {
		title = article.Title
	}
	logger = logger.With(logging.String(logging.FieldContentID, contentID))

	written := false
	if !b.cache.RawIsCurrent(contentcache.NamespaceBlog, contentID, hash) {
		payload := contentcache.RawBlog{
			ContentHash: hash,
			Title:       title,
			Author:      article.Author,
			PublishedAt: article.PublishedAt,
			OriginalURL: link.URL,
			Text:        article.Text,
			Language:    article.Language,
			Categories:  []string{entry.Category},
			Tags:        entry.Tags,
		}
		if err := b.cache.SaveRawBlog(contentID, payload); err != nil {
			warn(logger, report, Warning{Source: entry.URL, Item: link.URL, Stage: StageCache, Reason: err.Error()}, err)
			return nil
		}
		written = true
		logger.Info("article cached", logging.Int("chars", len(article.Text)))
	}

	record := contentindex.Record{
		ContentID:   contentID,
		SourceType:  contentindex.SourceTypeBlog,
		Origin:      string(entry.Kind),
		OriginalURL: link.URL,
		Title:       title,
		PublishedAt: article.PublishedAt,
		Author:      article.Author,
		Categories:  []string{entry.Category},
		Tags:        entry.Tags,
		RawPath:     b.cache.RawPath(contentcache.NamespaceBlog, contentID),
	}
	upsert(b.index, record, b.settings.now())
	report.Count(func(c *Counts) {
		c.BlogItems++
		if written {
			c.RawWritten++
		} else {
			c.RawReused++
		}
	})
	return nil
}

// upsert stamps record and keeps the summary path of an existing record.
func upsert(index *contentindex.Index, record contentindex.Record, now time.Time) {
	if existing, ok := index.Get(record.ContentID); ok && record.SummaryPath == "" {
		record.SummaryPath = existing.SummaryPath
	}
	index.Upsert(contentindex.BuildRecord(record, now))
}

func warn(logger *slog.Logger, report *Report, w Warning, err error) {
	attrs := []logging.Attr{
		logging.String("stage", w.Stage),
		logging.String("error_kind", services.Classify(err)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "item skipped for this run"),
	}
	if w.Item != "" {
		attrs = append(attrs, logging.String("item", w.Item))
	}
	logging.WarnWithContext(logger, "ingest item failed", "ingest_item_failed", attrs...)
	report.Warn(w)
}
