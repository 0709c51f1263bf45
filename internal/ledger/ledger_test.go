package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"readlist/internal/ledger"
)

func openLedger(t *testing.T, now time.Time) *ledger.Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "ledger.db")
	l, err := ledger.Open(path, ledger.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	version, err := first.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("unexpected schema version: got %d want 1", version)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Totals(context.Background()); err != nil {
		t.Fatalf("Totals after reopen: %v", err)
	}
}

func TestRecordUsageAndTotals(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l := openLedger(t, now)

	entries := []ledger.UsageEntry{
		{ContentID: "abc", SourceType: "blog_article", Model: "gpt-4.1-mini", PromptTokens: 100, CompletionTokens: 20},
		{ContentID: "abc", SourceType: "blog_article", Model: "gpt-4.1-mini", PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
		{ContentID: "vid", SourceType: "youtube_video", Model: "other", PromptTokens: 5, CompletionTokens: 5, RunID: "run-1"},
	}
	for _, e := range entries {
		saved, err := l.RecordUsage(ctx, e)
		if err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
		if saved.ID == "" {
			t.Fatal("expected generated id")
		}
	}

	totals, err := l.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Calls != 3 || totals.TotalTokens != 190 || totals.PromptTokens != 155 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	byModel, err := l.TotalsByModel(ctx)
	if err != nil {
		t.Fatalf("TotalsByModel: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4.1-mini" || byModel[0].Calls != 2 || byModel[0].TotalTokens != 180 {
		t.Fatalf("unexpected per-model totals: %+v", byModel)
	}

	rows, err := l.UsageFor(ctx, "vid")
	if err != nil {
		t.Fatalf("UsageFor: %v", err)
	}
	if len(rows) != 1 || rows[0].RunID != "run-1" || rows[0].PromptVersion != 1 {
		t.Fatalf("unexpected usage rows: %+v", rows)
	}
	if !rows[0].CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: got %s want %s", rows[0].CreatedAt, now)
	}
}

func TestRecordUsageRequiresContentID(t *testing.T) {
	l := openLedger(t, time.Now())
	if _, err := l.RecordUsage(context.Background(), ledger.UsageEntry{Model: "m"}); err == nil {
		t.Fatal("expected error for empty content id")
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l := openLedger(t, start)

	older, err := l.StartRun(ctx, "older", start.Add(-time.Hour))
	if err != nil {
		t.Fatalf("StartRun older: %v", err)
	}
	id, err := l.StartRun(ctx, "", start)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run id")
	}

	err = l.FinishRun(ctx, ledger.Run{
		ID:         id,
		FinishedAt: start.Add(90 * time.Second),
		Status:     ledger.RunPartial,
		Counts:     ledger.RunCounts{BlogItems: 3, VideoItems: 2, RawWritten: 4, RawReused: 1, Summarized: 2, SummariesSkipped: 1},
		Warnings:   2,
	})
	if err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := l.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	latest := runs[0]
	if latest.ID != id || latest.Status != ledger.RunPartial {
		t.Fatalf("unexpected latest run: %+v", latest)
	}
	if latest.Counts.RawWritten != 4 || latest.Counts.SummariesSkipped != 1 || latest.Warnings != 2 {
		t.Fatalf("unexpected counts: %+v", latest)
	}
	if latest.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration: %s", latest.Duration())
	}
	if runs[1].ID != older || runs[1].Status != ledger.RunRunning || runs[1].Duration() != 0 {
		t.Fatalf("unexpected older run: %+v", runs[1])
	}
}

func TestRecentRunsOrdersSameStartByInsertion(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l := openLedger(t, start)

	for _, id := range []string{"aaa", "mmm", "zzz"} {
		if _, err := l.StartRun(ctx, id, start); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
	}
	if err := l.FinishRun(ctx, ledger.Run{ID: "aaa", FinishedAt: start.Add(time.Minute), Status: ledger.RunOK}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := l.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	var got []string
	for _, r := range runs {
		got = append(got, r.ID)
	}
	if len(got) != 3 || got[0] != "zzz" || got[1] != "mmm" || got[2] != "aaa" {
		t.Fatalf("runs sharing a start time should be newest-inserted first, got %v", got)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	l := openLedger(t, time.Now())
	err := l.FinishRun(context.Background(), ledger.Run{ID: "missing"})
	if !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
