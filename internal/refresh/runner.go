package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"readlist/internal/config"
	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/ingest"
	"readlist/internal/ledger"
	"readlist/internal/logging"
	"readlist/internal/notifications"
	"readlist/internal/scrape"
	"readlist/internal/services/httpfetch"
	"readlist/internal/sourcelist"
	"readlist/internal/summary"
	"readlist/internal/tracker"
	"readlist/internal/youtube"
)

// ErrRunInProgress is returned when another process holds the refresh lock.
var ErrRunInProgress = errors.New("another refresh is already running")

// SummarizerFactory builds the summarizer for one run. Returning a
// *summary.ConfigError skips summarization without failing the run.
type SummarizerFactory func(cache *contentcache.Store) (*summary.Summarizer, error)

// Options selects what a run does.
type Options struct {
	SkipSummaries  bool
	ForceSummaries bool
}

// Runner executes refreshes against one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	lock   *flock.Flock
	ledger *ledger.Ledger

	links    ingest.LinkLister
	articles ingest.ArticleFetcher
	channels ingest.ChannelSource
	metadata ingest.MetadataSource

	newSummarizer SummarizerFactory
	notifier      notifications.Service
	ingestOpts    []ingest.Option
	now           func() time.Time

	indexMu sync.Mutex
}

// Option customises a Runner.
type Option func(*Runner)

// WithLedger records runs and summary usage in l.
func WithLedger(l *ledger.Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithBlogSources replaces the HTTP scraper.
func WithBlogSources(links ingest.LinkLister, articles ingest.ArticleFetcher) Option {
	return func(r *Runner) {
		r.links = links
		r.articles = articles
	}
}

// WithVideoSources replaces the YouTube client.
func WithVideoSources(channels ingest.ChannelSource, metadata ingest.MetadataSource) Option {
	return func(r *Runner) {
		r.channels = channels
		r.metadata = metadata
	}
}

// WithSummarizerFactory replaces the LLM-backed summarizer.
func WithSummarizerFactory(f SummarizerFactory) Option {
	return func(r *Runner) {
		if f != nil {
			r.newSummarizer = f
		}
	}
}

// WithNotifier replaces the ntfy service built from the config.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithIngestOptions passes options to both ingestors.
func WithIngestOptions(opts ...ingest.Option) Option {
	return func(r *Runner) { r.ingestOpts = append(r.ingestOpts, opts...) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner wires the default HTTP-backed sources from cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "refresh"),
		lock:   flock.New(cfg.LockPath()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	fetcher := httpfetch.New(cfg.Ingest.UserAgent, cfg.RequestTimeout())
	if r.links == nil || r.articles == nil {
		var scrapeOpts []scrape.Option
		if cfg.Ingest.ArticleExtractor == config.ExtractorReadability {
			scrapeOpts = append(scrapeOpts, scrape.WithStrategy(scrape.NewReadabilityStrategy()))
		}
		if cfg.Ingest.DetectLanguage {
			scrapeOpts = append(scrapeOpts, scrape.WithLanguageDetector(scrape.NewLinguaDetector()))
		}
		scraper := scrape.New(fetcher, logger, scrapeOpts...)
		if r.links == nil {
			r.links = scraper
		}
		if r.articles == nil {
			r.articles = scraper
		}
	}
	if r.channels == nil || r.metadata == nil {
		client := youtube.NewClient(fetcher, logger)
		if r.channels == nil {
			r.channels = client
		}
		if r.metadata == nil {
			r.metadata = client
		}
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(cfg)
	}
	if r.newSummarizer == nil {
		r.newSummarizer = func(cache *contentcache.Store) (*summary.Summarizer, error) {
			var sumOpts []summary.Option
			if r.ledger != nil {
				sumOpts = append(sumOpts, summary.WithUsageRecorder(r.ledger))
			}
			return summary.NewFromConfig(cfg, cache, logger, sumOpts...)
		}
	}
	return r
}

// acquire takes the run lock and returns its release func.
func (r *Runner) acquire() (func(), error) {
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release refresh lock", logging.Error(err))
		}
	}, nil
}

type stores struct {
	cache   *contentcache.Store
	index   *contentindex.Index
	tracked *tracker.Store
}

func (r *Runner) openStores() stores {
	return stores{
		cache:   contentcache.New(r.cfg.RawCacheDir(), r.cfg.SummaryCacheDir(), r.logger, contentcache.WithClock(r.now)),
		index:   contentindex.Open(r.cfg.IndexPath(), r.logger),
		tracked: tracker.Open(r.cfg.Paths.TrackerDir, r.logger),
	}
}

// Run performs one refresh. Per-item problems end up in the report; only
// input errors, lock contention, cancellation and index write failures are
// returned as errors.
func (r *Runner) Run(ctx context.Context, opts Options) (*ingest.Report, error) {
	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := sourcelist.Parse(r.cfg.Paths.SourceList)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	report := ingest.NewReport(runID, started)
	r.startRun(ctx, runID, started)

	s := r.openStores()
	logger.Info("refresh started",
		logging.Int("sources", len(entries)),
		logging.Int("indexed", s.index.Len()))

	runErr := r.ingest(ctx, s, entries, report, logger)
	if runErr == nil && !opts.SkipSummaries && r.cfg.Summary.Enabled {
		runErr = r.summarize(ctx, s, opts.ForceSummaries, report, logger)
	}

	report.Finish(r.now())
	r.finishRun(ctx, report)
	if runErr != nil {
		r.notify(ctx, func(n notifications.Service, ctx context.Context) error {
			return n.NotifyError(ctx, runErr, "refresh")
		})
		return report, runErr
	}
	r.notify(ctx, func(n notifications.Service, ctx context.Context) error {
		return n.NotifyRefreshCompleted(ctx, refreshSummary(report))
	})
	finishAttrs := []logging.Attr{
		logging.String("status", report.Status()),
		logging.Int("blog_items", report.Counts.BlogItems),
		logging.Int("video_items", report.Counts.VideoItems),
		logging.Int("raw_written", report.Counts.RawWritten),
		logging.Int("raw_reused", report.Counts.RawReused),
		logging.Int("warnings", len(report.Warnings)),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	if report.Status() != "ok" {
		finishAttrs = append(finishAttrs, logging.Alert("review"))
	}
	logger.Info("refresh finished", logging.Args(finishAttrs...)...)
	return report, nil
}

func (r *Runner) ingest(ctx context.Context, s stores, entries []sourcelist.Entry, report *ingest.Report, logger *slog.Logger) error {
	blogOpts := append([]ingest.Option{
		ingest.WithClock(r.now),
		ingest.WithPause(r.cfg.FetchPause()),
		ingest.WithLimit(r.cfg.Ingest.BlogArticlesPerSource),
	}, r.ingestOpts...)
	videoOpts := append([]ingest.Option{
		ingest.WithClock(r.now),
		ingest.WithPause(r.cfg.FetchPause()),
		ingest.WithLimit(r.cfg.Ingest.ChannelVideoLimit),
	}, r.ingestOpts...)

	blogs := ingest.NewBlogIngestor(s.cache, s.index, r.links, r.articles, r.logger, blogOpts...)
	if err := blogs.Ingest(ctx, entries, report); err != nil {
		return err
	}
	videos := ingest.NewVideoIngestor(s.cache, s.index, s.tracked, r.channels, r.metadata, r.logger, videoOpts...)
	if err := videos.Ingest(ctx, entries, report); err != nil {
		return err
	}

	if removed := s.index.DedupeByURL(); len(removed) > 0 {
		report.Count(func(c *ingest.Counts) { c.Deduplicated += len(removed) })
		logger.Info("removed duplicate records",
			logging.Int("count", len(removed)),
			logging.String("ids", strings.Join(removed, ",")))
	}
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	return s.index.Save()
}

func (r *Runner) summarize(ctx context.Context, s stores, force bool, report *ingest.Report, logger *slog.Logger) error {
	summarizer, err := r.newSummarizer(s.cache)
	if err == nil {
		r.indexMu.Lock()
		err = summarizer.SummarizeAll(ctx, s.index, force, report)
		r.indexMu.Unlock()
	}
	if err != nil && summary.IsConfigError(err) {
		report.SetSummaryError(err)
		var cfgErr *summary.ConfigError
		hint := "fix the summary configuration and rerun"
		if errors.As(err, &cfgErr) && cfgErr.Hint != "" {
			hint = cfgErr.Hint
		}
		logging.WarnWithContext(logger, "summaries skipped", "summary_config_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "ingested content is indexed without new summaries"))
		return nil
	}
	return err
}

func (r *Runner) startRun(ctx context.Context, runID string, started time.Time) {
	if r.ledger == nil {
		return
	}
	if _, err := r.ledger.StartRun(ctx, runID, started); err != nil {
		logging.WarnWithContext(r.logger, "run not recorded", "ledger_write_failed",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldImpact, "run history will miss this refresh"),
			logging.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, report *ingest.Report) {
	if r.ledger == nil {
		return
	}
	c := report.Counts
	run := ledger.Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Status:     report.Status(),
		Counts: ledger.RunCounts{
			BlogItems:        c.BlogItems,
			VideoItems:       c.VideoItems,
			RawWritten:       c.RawWritten,
			RawReused:        c.RawReused,
			Deduplicated:     c.Deduplicated,
			Summarized:       c.Summarized,
			SummariesCached:  c.SummariesCached,
			SummariesSkipped: c.SummariesSkipped,
		},
		Warnings:        len(report.Warnings),
		SummaryFailures: len(report.SummaryFailures),
		SummaryError:    report.SummaryError,
	}
	if err := r.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(r.logger, "run outcome not recorded", "ledger_write_failed",
			logging.String(logging.FieldRunID, report.RunID),
			logging.String(logging.FieldImpact, "run history shows this refresh as running"),
			logging.Error(err))
	}
}

// notify sends one notification; delivery failures only warn.
func (r *Runner) notify(ctx context.Context, send func(notifications.Service, context.Context) error) {
	if err := send(r.notifier, context.WithoutCancel(ctx)); err != nil {
		logging.WarnWithContext(r.logger, "notification not delivered", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "refresh result only available in logs and run history"))
	}
}

func refreshSummary(report *ingest.Report) notifications.RefreshSummary {
	c := report.Counts
	return notifications.RefreshSummary{
		RunID:           report.RunID,
		Status:          report.Status(),
		Items:           c.BlogItems + c.VideoItems,
		NewRaw:          c.RawWritten,
		Summarized:      c.Summarized,
		Warnings:        len(report.Warnings),
		SummaryFailures: len(report.SummaryFailures),
		SummaryError:    report.SummaryError,
		Duration:        report.FinishedAt.Sub(report.StartedAt),
	}
}
