package refresh_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"readlist/internal/config"
	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/ledger"
	"readlist/internal/logging"
	"readlist/internal/notifications"
	"readlist/internal/refresh"
	"readlist/internal/scrape"
	"readlist/internal/services"
	"readlist/internal/sourcelist"
	"readlist/internal/summary"
	"readlist/internal/testsupport"
	"readlist/internal/youtube"
)

const sourceList = `# Blogs
- [Engineering] Example Blog: https://blog.example.com/ | tags: go

# Youtube Videos
- Talk: https://www.youtube.com/watch?v=dQw4w9WgXcQ
`

type fakeSources struct {
	mu       sync.Mutex
	links    map[string][]scrape.Link
	articles map[string]scrape.Article
	videos   map[string]youtube.VideoMetadata
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		links: map[string][]scrape.Link{
			"https://blog.example.com/": {
				{Title: "First", URL: "https://blog.example.com/first"},
				{Title: "Second", URL: "https://blog.example.com/second"},
			},
		},
		articles: map[string]scrape.Article{
			"https://blog.example.com/first":  {Text: "first body", PublishedAt: "2024-05-01T00:00:00Z", Author: "Ada"},
			"https://blog.example.com/second": {Text: "second body", PublishedAt: "2024-05-02T00:00:00Z"},
		},
		videos: map[string]youtube.VideoMetadata{
			"dQw4w9WgXcQ": {VideoID: "dQw4w9WgXcQ", Title: "Talk", ChannelName: "Chan", PublishedAt: "2024-04-01T00:00:00Z"},
		},
	}
}

func (f *fakeSources) FetchRecentLinks(_ context.Context, pageURL string, limit int) ([]scrape.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	links, ok := f.links[pageURL]
	if !ok {
		return nil, fmt.Errorf("no listing for %s", pageURL)
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func (f *fakeSources) FetchArticle(_ context.Context, articleURL string) (scrape.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[articleURL]
	if !ok {
		return scrape.Article{}, fmt.Errorf("missing %s", articleURL)
	}
	return a, nil
}

func (f *fakeSources) ResolveChannelID(context.Context, string) (string, error) {
	return "", services.Wrap(services.ErrNotFound, "youtube", "resolve", "no channels in tests", nil)
}

func (f *fakeSources) FetchChannelVideos(context.Context, string, int) ([]youtube.RemoteVideo, error) {
	return nil, nil
}

func (f *fakeSources) FetchVideoMetadata(_ context.Context, id string) (youtube.VideoMetadata, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.videos[id]
	return m, ok, nil
}

type countingCapability struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCapability) Summarize(context.Context, summary.Prompt) (summary.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return summary.Completion{Text: "a summary", Model: "fake", Usage: &contentcache.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}}, nil
}

func (c *countingCapability) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	cfg     *config.Config
	sources *fakeSources
	cap     *countingCapability
	notify  *recordingNotifier
	ledger  *ledger.Ledger
	runner  *refresh.Runner
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []notifications.RefreshSummary
	errors    []error
}

func (n *recordingNotifier) NotifyRefreshCompleted(_ context.Context, s notifications.RefreshSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, s)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func newFixture(t *testing.T, opts ...refresh.Option) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSourceList(sourceList))
	f := &fixture{
		cfg:     cfg,
		sources: newFakeSources(),
		cap:     &countingCapability{},
		notify:  &recordingNotifier{},
		ledger:  testsupport.MustOpenLedger(t, cfg),
	}
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	base := []refresh.Option{
		refresh.WithLedger(f.ledger),
		refresh.WithNotifier(f.notify),
		refresh.WithBlogSources(f.sources, f.sources),
		refresh.WithVideoSources(f.sources, f.sources),
		refresh.WithClock(func() time.Time { return now }),
		refresh.WithSummarizerFactory(func(cache *contentcache.Store) (*summary.Summarizer, error) {
			return summary.New(cache, f.cap, summary.DefaultPrompts(), logging.NewNop(), summary.WithUsageRecorder(f.ledger)), nil
		}),
	}
	f.runner = refresh.NewRunner(cfg, logging.NewNop(), append(base, opts...)...)
	return f
}

func TestRunIngestsSummarizesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.runner.Run(ctx, refresh.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c := report.Counts
	if c.BlogItems != 2 || c.VideoItems != 1 || c.RawWritten != 3 || c.RawReused != 0 {
		t.Fatalf("unexpected ingest counts: %+v", c)
	}
	if c.Summarized != 2 || c.SummariesSkipped != 1 {
		t.Fatalf("unexpected summary counts: %+v", c)
	}
	if report.Status() != ledger.RunOK {
		t.Fatalf("unexpected status %q, warnings=%+v", report.Status(), report.Warnings)
	}

	index := contentindex.Open(f.cfg.IndexPath(), logging.NewNop())
	if index.Len() != 3 {
		t.Fatalf("expected 3 indexed records, got %d", index.Len())
	}
	for _, rec := range index.All() {
		if rec.SourceType == contentindex.SourceTypeBlog && rec.SummaryPath == "" {
			t.Fatalf("blog record missing summary path: %+v", rec)
		}
	}

	second, err := f.runner.Run(ctx, refresh.Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Counts.RawWritten != 0 || second.Counts.RawReused != 3 || second.Counts.SummariesCached != 2 {
		t.Fatalf("second run should reuse everything: %+v", second.Counts)
	}
	if f.cap.count() != 2 {
		t.Fatalf("expected capability to be called twice overall, got %d", f.cap.count())
	}

	runs, err := f.ledger.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Status != ledger.RunOK || runs[0].Counts.RawReused != 3 {
		t.Fatalf("unexpected ledger runs: %+v", runs)
	}
	totals, err := f.ledger.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Calls != 2 || totals.TotalTokens != 10 {
		t.Fatalf("unexpected usage totals: %+v", totals)
	}
}

func TestRunRecordsFetchFailuresAsWarnings(t *testing.T) {
	f := newFixture(t)
	delete(f.sources.articles, "https://blog.example.com/second")

	report, err := f.runner.Run(context.Background(), refresh.Options{SkipSummaries: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Item != "https://blog.example.com/second" {
		t.Fatalf("unexpected warnings: %+v", report.Warnings)
	}
	if report.Status() != ledger.RunPartial {
		t.Fatalf("unexpected status: %q", report.Status())
	}
	if f.cap.count() != 0 {
		t.Fatal("summaries should be skipped")
	}
	if len(f.notify.summaries) != 1 {
		t.Fatalf("expected one refresh notification, got %d", len(f.notify.summaries))
	}
	if got := f.notify.summaries[0]; got.Status != ledger.RunPartial || got.Warnings != 1 || got.Items != 2 {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestRunWithoutAPIKeyKeepsIngestResults(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSourceList(sourceList), testsupport.WithDefaultPrompts())
	sources := newFakeSources()
	runner := refresh.NewRunner(cfg, logging.NewNop(),
		refresh.WithBlogSources(sources, sources),
		refresh.WithVideoSources(sources, sources))

	report, err := runner.Run(context.Background(), refresh.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SummaryError == "" {
		t.Fatal("expected summary error for missing api key")
	}
	if report.Status() != ledger.RunFailed {
		t.Fatalf("unexpected status: %q", report.Status())
	}
	index := contentindex.Open(cfg.IndexPath(), logging.NewNop())
	if index.Len() != 3 {
		t.Fatalf("ingest results should be saved, got %d records", index.Len())
	}
}

func TestRunWithBrokenPromptFailsSummaryPhase(t *testing.T) {
	prompts := summary.DefaultPrompts()
	blog := prompts[summary.KeyBlog]
	blog.User = "Blog {title} {bogus}"
	prompts[summary.KeyBlog] = blog
	f := newFixture(t, refresh.WithSummarizerFactory(func(cache *contentcache.Store) (*summary.Summarizer, error) {
		return summary.New(cache, &countingCapability{}, prompts, logging.NewNop()), nil
	}))

	report, err := f.runner.Run(context.Background(), refresh.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(report.SummaryError, "bogus") {
		t.Fatalf("expected summary error naming the placeholder, got %q", report.SummaryError)
	}
	if len(report.SummaryFailures) != 0 {
		t.Fatalf("unexpected per-item failures: %+v", report.SummaryFailures)
	}
	if report.Status() != ledger.RunFailed {
		t.Fatalf("unexpected status: %q", report.Status())
	}
}

func TestRunFailsFastWhenLocked(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Dir(f.cfg.LockPath()), 0o755); err != nil {
		t.Fatal(err)
	}
	other := flock.New(f.cfg.LockPath())
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer other.Unlock()

	if _, err := f.runner.Run(context.Background(), refresh.Options{}); !errors.Is(err, refresh.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunMissingSourceList(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(f.cfg.Paths.SourceList); err != nil {
		t.Fatal(err)
	}
	if _, err := f.runner.Run(context.Background(), refresh.Options{}); !errors.Is(err, sourcelist.ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
}

func TestSummarizeSelectedIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.runner.Run(ctx, refresh.Options{SkipSummaries: true}); err != nil {
		t.Fatal(err)
	}
	index := contentindex.Open(f.cfg.IndexPath(), logging.NewNop())
	var blogIDs []string
	for _, rec := range index.All() {
		if rec.SourceType == contentindex.SourceTypeBlog {
			blogIDs = append(blogIDs, rec.ContentID)
		}
	}

	report, err := f.runner.Summarize(ctx, blogIDs, false)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if report.Counts.Summarized != 2 || len(report.SummaryFailures) != 0 {
		t.Fatalf("unexpected report: %+v failures=%+v", report.Counts, report.SummaryFailures)
	}
	reloaded := contentindex.Open(f.cfg.IndexPath(), logging.NewNop())
	for _, id := range blogIDs {
		rec, _ := reloaded.Get(id)
		if rec.SummaryPath == "" {
			t.Fatalf("summary path not persisted for %s", id)
		}
	}

	again, err := f.runner.Summarize(ctx, blogIDs[:1], false)
	if err != nil {
		t.Fatal(err)
	}
	if again.Counts.SummariesCached != 1 {
		t.Fatalf("expected cached summary, got %+v", again.Counts)
	}

	if _, err := f.runner.Summarize(ctx, []string{"unknown"}, false); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneRemovesOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.runner.Run(ctx, refresh.Options{}); err != nil {
		t.Fatal(err)
	}
	cache := contentcache.New(f.cfg.RawCacheDir(), f.cfg.SummaryCacheDir(), logging.NewNop())
	if err := cache.SaveRawBlog("orphan", contentcache.RawBlog{ContentHash: "h", Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.SaveSummary("ghost", contentcache.SummaryPayload{Summary: "s", ContentHash: "h", PromptVersion: 1}); err != nil {
		t.Fatal(err)
	}

	result, err := f.runner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if result.RawRemoved != 1 || result.SummaryRemoved != 1 {
		t.Fatalf("unexpected prune result: %+v", result)
	}
	if _, ok := cache.LoadRawBlog("orphan"); ok {
		t.Fatal("orphan raw payload still present")
	}
	blogs, _ := cache.RawIDs(contentcache.NamespaceBlog)
	if len(blogs) != 2 {
		t.Fatalf("indexed payloads should survive, got %v", blogs)
	}
}
