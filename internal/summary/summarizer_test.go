package summary_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/ingest"
	"readlist/internal/ledger"
	"readlist/internal/logging"
	"readlist/internal/summary"
	"readlist/internal/testsupport"
)

type fakeCapability struct {
	mu      sync.Mutex
	calls   int
	prompts []summary.Prompt
	fail    map[string]error
	release chan struct{}
}

func (f *fakeCapability) Summarize(ctx context.Context, p summary.Prompt) (summary.Completion, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, p)
	for marker, err := range f.fail {
		if strings.Contains(p.User, marker) {
			return summary.Completion{}, err
		}
	}
	return summary.Completion{
		Text:  "  summary of " + firstLine(p.User) + "  ",
		Model: "fake-model",
		Usage: &contentcache.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeCapability) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type fakeUsage struct {
	mu      sync.Mutex
	entries []ledger.UsageEntry
}

func (f *fakeUsage) RecordUsage(_ context.Context, e ledger.UsageEntry) (ledger.UsageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return e, nil
}

type harness struct {
	cache *contentcache.Store
	index *contentindex.Index
	cap   *fakeCapability
	usage *fakeUsage
	sum   *summary.Summarizer
	now   time.Time
}

func testPrompts() summary.Prompts {
	return summary.Prompts{
		summary.KeyBlog:  {System: "sys", User: "Blog {title} by {author} on {published_at}\ntags={tags}\n{content}", PromptVersion: 1},
		summary.KeyVideo: {System: "sys", User: "Video {title} from {channel}\ntags={tags}\n{transcript}", PromptVersion: 1},
	}
}

func newHarness(t *testing.T, prompts summary.Prompts, opts ...summary.Option) *harness {
	t.Helper()
	dir := t.TempDir()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	h := &harness{
		cache: contentcache.New(filepath.Join(dir, "raw"), filepath.Join(dir, "summaries"), logging.NewNop(), contentcache.WithClock(clock)),
		index: contentindex.Open(filepath.Join(dir, "content_index.json"), logging.NewNop()),
		cap:   &fakeCapability{},
		usage: &fakeUsage{},
		now:   now,
	}
	base := []summary.Option{summary.WithClock(clock), summary.WithUsageRecorder(h.usage)}
	h.sum = summary.New(h.cache, h.cap, prompts, logging.NewNop(), append(base, opts...)...)
	return h
}

func (h *harness) addBlog(t *testing.T, id, title, text string, tags []string) contentindex.Record {
	t.Helper()
	raw := contentcache.RawBlog{ContentHash: contentcache.Hash(text), Title: title, OriginalURL: "https://example.com/" + id, Text: text}
	if err := h.cache.SaveRawBlog(id, raw); err != nil {
		t.Fatal(err)
	}
	rec := contentindex.BuildRecord(contentindex.Record{
		ContentID:   id,
		SourceType:  contentindex.SourceTypeBlog,
		OriginalURL: raw.OriginalURL,
		Title:       title,
		Tags:        tags,
		RawPath:     h.cache.RawPath(contentcache.NamespaceBlog, id),
	}, h.now.Add(-time.Hour))
	h.index.Upsert(rec)
	return rec
}

func TestSummarizeCachesUntilHashOrVersionChanges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testPrompts())
	rec := h.addBlog(t, "b1", "Post", "body text", []string{"go"})

	first, err := h.sum.Summarize(ctx, rec, false)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if first.Cached || first.Text != "summary of Blog Post by Unknown on Unknown" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.SummaryPath != h.cache.SummaryPath("b1") {
		t.Fatalf("unexpected summary path: %q", first.SummaryPath)
	}

	second, err := h.sum.Summarize(ctx, rec, false)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || h.cap.count() != 1 {
		t.Fatalf("expected cached result without capability call: cached=%v calls=%d", second.Cached, h.cap.count())
	}

	if _, err := h.sum.Summarize(ctx, rec, true); err != nil {
		t.Fatal(err)
	}
	if h.cap.count() != 2 {
		t.Fatalf("force should regenerate: calls=%d", h.cap.count())
	}

	h.addBlog(t, "b1", "Post", "edited body", nil)
	if res, err := h.sum.Summarize(ctx, rec, false); err != nil || res.Cached {
		t.Fatalf("hash change should regenerate: res=%+v err=%v", res, err)
	}
	if h.cap.count() != 3 {
		t.Fatalf("expected 3 calls, got %d", h.cap.count())
	}

	bumped := testPrompts()
	tmpl := bumped[summary.KeyBlog]
	tmpl.PromptVersion = 2
	bumped[summary.KeyBlog] = tmpl
	h2 := summary.New(h.cache, h.cap, bumped, logging.NewNop())
	res, err := h2.Summarize(ctx, rec, false)
	if err != nil || res.Cached || res.PromptVersion != 2 {
		t.Fatalf("version change should regenerate: res=%+v err=%v", res, err)
	}

	payload, ok := h.cache.LoadSummary("b1")
	if !ok || payload.PromptVersion != 2 || payload.ContentHash != contentcache.Hash("edited body") || payload.Model != "fake-model" {
		t.Fatalf("unexpected stored payload: %+v", payload)
	}
	if len(h.usage.entries) != 3 || h.usage.entries[0].TotalTokens != 15 || h.usage.entries[0].ContentID != "b1" {
		t.Fatalf("unexpected usage entries: %+v", h.usage.entries)
	}
}

func TestSummarizeRendersVariables(t *testing.T) {
	tags := summary.UserTags{}
	tags.Set("v1", []string{"later", "ml"})
	h := newHarness(t, testPrompts(), summary.WithUserTags(tags), summary.WithMaxBodyChars(5))

	raw := contentcache.RawVideo{ContentHash: "h", Title: "Talk", Transcript: "abcdefghij", TranscriptAvailable: true}
	if err := h.cache.SaveRawVideo("v1", raw); err != nil {
		t.Fatal(err)
	}
	rec := contentindex.Record{ContentID: "v1", SourceType: contentindex.SourceTypeVideo, Title: "Talk", Tags: []string{"ml"}}
	if _, err := h.sum.Summarize(context.Background(), rec, false); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	got := h.cap.prompts[0]
	want := "Video Talk from Unknown Channel\ntags=ml, later\nabcde"
	if got.User != want {
		t.Fatalf("unexpected prompt: got %q want %q", got.User, want)
	}
	if got.System != "sys" || got.Temperature != 0.3 {
		t.Fatalf("unexpected prompt settings: %+v", got)
	}
}

func TestSummarizeErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testPrompts())

	_, err := h.sum.Summarize(ctx, contentindex.Record{ContentID: "nope", SourceType: contentindex.SourceTypeBlog}, false)
	if !errors.Is(err, summary.ErrRawMissing) {
		t.Fatalf("expected ErrRawMissing, got %v", err)
	}

	_, err = h.sum.Summarize(ctx, contentindex.Record{ContentID: "x", SourceType: "podcast"}, false)
	if !errors.Is(err, summary.ErrUnsupportedSourceType) {
		t.Fatalf("expected ErrUnsupportedSourceType, got %v", err)
	}

	if err := h.cache.SaveRawVideo("v0", contentcache.RawVideo{ContentHash: "h", Title: "No transcript"}); err != nil {
		t.Fatal(err)
	}
	_, err = h.sum.Summarize(ctx, contentindex.Record{ContentID: "v0", SourceType: contentindex.SourceTypeVideo}, false)
	if !errors.Is(err, summary.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}

	h.cap.fail = map[string]error{"Broken": errors.New("http 500")}
	rec := h.addBlog(t, "b2", "Broken", "text", nil)
	if _, err := h.sum.Summarize(ctx, rec, false); err == nil {
		t.Fatal("expected capability error")
	}
	if _, ok := h.cache.LoadSummary("b2"); ok {
		t.Fatal("no summary should be written on failure")
	}
	if h.cap.count() != 1 {
		t.Fatalf("only the failing call should reach the capability, got %d", h.cap.count())
	}
}

func TestSummarizeAllUpdatesIndexAndReport(t *testing.T) {
	h := newHarness(t, testPrompts())
	h.addBlog(t, "a", "Good", "text a", nil)
	h.addBlog(t, "b", "Broken", "text b", nil)
	if err := h.cache.SaveRawVideo("c", contentcache.RawVideo{ContentHash: "h", Title: "Silent"}); err != nil {
		t.Fatal(err)
	}
	h.index.Upsert(contentindex.BuildRecord(contentindex.Record{ContentID: "c", SourceType: contentindex.SourceTypeVideo, Title: "Silent"}, h.now))
	h.cap.fail = map[string]error{"Broken": errors.New("rate limited")}

	report := ingest.NewReport("run", h.now)
	if err := h.sum.SummarizeAll(context.Background(), h.index, false, report); err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}
	if report.Counts.Summarized != 1 || report.Counts.SummariesSkipped != 1 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
	if len(report.SummaryFailures) != 1 || report.SummaryFailures[0].ContentID != "b" {
		t.Fatalf("unexpected failures: %+v", report.SummaryFailures)
	}

	got, _ := h.index.Get("a")
	if got.SummaryPath != h.cache.SummaryPath("a") || !got.LastUpdated.Equal(h.now) {
		t.Fatalf("record not updated: %+v", got)
	}
	failed, _ := h.index.Get("b")
	if failed.SummaryPath != "" {
		t.Fatalf("failed record should keep empty summary path: %+v", failed)
	}

	reloaded := contentindex.Open(h.index.Path(), logging.NewNop())
	if r, ok := reloaded.Get("a"); !ok || r.SummaryPath == "" {
		t.Fatal("index was not saved")
	}

	second := ingest.NewReport("run2", h.now)
	if err := h.sum.SummarizeAll(context.Background(), h.index, false, second); err != nil {
		t.Fatal(err)
	}
	if second.Counts.SummariesCached != 1 || second.Counts.Summarized != 0 {
		t.Fatalf("second pass should reuse cache: %+v", second.Counts)
	}
}

func TestSummarizeAllStopsOnCancel(t *testing.T) {
	h := newHarness(t, testPrompts())
	h.addBlog(t, "a", "Good", "text", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.sum.SummarizeAll(ctx, h.index, false, ingest.NewReport("r", h.now)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.cap.count() != 0 {
		t.Fatal("capability called after cancel")
	}
}

func TestSummarizeAllStopsOnUnknownPlaceholder(t *testing.T) {
	prompts := testPrompts()
	blog := prompts[summary.KeyBlog]
	blog.User = "Blog {title} {bogus}"
	prompts[summary.KeyBlog] = blog
	h := newHarness(t, prompts)
	h.addBlog(t, "a", "First", "text a", nil)
	h.addBlog(t, "b", "Second", "text b", nil)

	report := ingest.NewReport("run", h.now)
	err := h.sum.SummarizeAll(context.Background(), h.index, false, report)
	if !summary.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("error should name the placeholder: %v", err)
	}
	if len(report.SummaryFailures) != 0 {
		t.Fatalf("config error must not be recorded per item: %+v", report.SummaryFailures)
	}
	if h.cap.count() != 0 {
		t.Fatalf("capability called %d times with a broken prompt", h.cap.count())
	}
}

func TestSummarizeAllKeepsLastUpdatedOnCacheHit(t *testing.T) {
	h := newHarness(t, testPrompts())
	h.addBlog(t, "a", "Post", "text", nil)
	if err := h.sum.SummarizeAll(context.Background(), h.index, false, ingest.NewReport("r1", h.now)); err != nil {
		t.Fatal(err)
	}
	before, _ := h.index.Get("a")

	later := h.now.Add(24 * time.Hour)
	rerun := summary.New(h.cache, h.cap, testPrompts(), logging.NewNop(), summary.WithClock(func() time.Time { return later }))
	report := ingest.NewReport("r2", later)
	if err := rerun.SummarizeAll(context.Background(), h.index, false, report); err != nil {
		t.Fatal(err)
	}
	if report.Counts.SummariesCached != 1 {
		t.Fatalf("expected cached summary, got %+v", report.Counts)
	}
	after, _ := h.index.Get("a")
	if !after.LastUpdated.Equal(before.LastUpdated) {
		t.Fatalf("last_updated changed on cache hit: %s -> %s", before.LastUpdated, after.LastUpdated)
	}
}

func TestNewFromConfigAppliesRetrySettings(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAPIKey("test-key"), testsupport.WithDefaultPrompts())
	cfg.LLM.BaseURL = server.URL
	cfg.LLM.RetryAttempts = 2
	cfg.LLM.RetryBaseDelayMillis = 1
	cfg.LLM.RetryMaxDelaySeconds = 1

	dir := t.TempDir()
	cache := contentcache.New(filepath.Join(dir, "raw"), filepath.Join(dir, "summaries"), logging.NewNop())
	text := "article body"
	if err := cache.SaveRawBlog("a", contentcache.RawBlog{ContentHash: contentcache.Hash(text), Title: "Post", Text: text}); err != nil {
		t.Fatal(err)
	}
	sum, err := summary.NewFromConfig(cfg, cache, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	rec := contentindex.Record{ContentID: "a", SourceType: contentindex.SourceTypeBlog, Title: "Post"}
	if _, err := sum.Summarize(context.Background(), rec, false); err == nil {
		t.Fatal("expected summarize to fail against an unavailable endpoint")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts from llm.retry_attempts, got %d", got)
	}
}
