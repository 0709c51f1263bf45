package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunPartial = "partial"
	RunFailed  = "failed"
)

// RunCounts mirrors the per-run counters of a refresh report.
type RunCounts struct {
	BlogItems        int
	VideoItems       int
	RawWritten       int
	RawReused        int
	Deduplicated     int
	Summarized       int
	SummariesCached  int
	SummariesSkipped int
}

// Run is one refresh in the history table.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          string
	Counts          RunCounts
	Warnings        int
	SummaryFailures int
	SummaryError    string
}

// StartRun inserts a running row. An empty id is replaced with a new uuid.
func (l *Ledger) StartRun(ctx context.Context, id string, started time.Time) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if started.IsZero() {
		started = l.now()
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, formatTime(started), RunRunning)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of a run started with StartRun.
func (l *Ledger) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = l.now()
	}
	if run.Status == "" {
		run.Status = RunOK
	}
	c := run.Counts
	res, err := l.db.ExecContext(ctx, `UPDATE runs SET
        finished_at = ?, status = ?,
        blog_items = ?, video_items = ?, raw_written = ?, raw_reused = ?,
        deduplicated = ?, summarized = ?, summaries_cached = ?, summaries_skipped = ?,
        warnings = ?, summary_failures = ?, summary_error = ?
        WHERE id = ?`,
		formatTime(run.FinishedAt), run.Status,
		c.BlogItems, c.VideoItems, c.RawWritten, c.RawReused,
		c.Deduplicated, c.Summarized, c.SummariesCached, c.SummariesSkipped,
		run.Warnings, run.SummaryFailures, nullableString(run.SummaryError),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// ErrRunNotFound is returned when finishing an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, started_at, finished_at, status,
        blog_items, video_items, raw_written, raw_reused, deduplicated,
        summarized, summaries_cached, summaries_skipped,
        warnings, summary_failures, summary_error
        FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
			summaryErr        sql.NullString
		)
		c := &r.Counts
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status,
			&c.BlogItems, &c.VideoItems, &c.RawWritten, &c.RawReused, &c.Deduplicated,
			&c.Summarized, &c.SummariesCached, &c.SummariesSkipped,
			&r.Warnings, &r.SummaryFailures, &summaryErr); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.SummaryError = summaryErr.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Duration reports how long a finished run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
