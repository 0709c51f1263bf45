package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UsageEntry is one summarization call's token accounting.
type UsageEntry struct {
	ID               string
	ContentID        string
	SourceType       string
	Model            string
	PromptVersion    int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	RunID            string
	CreatedAt        time.Time
}

// UsageTotals aggregates usage rows.
type UsageTotals struct {
	Model            string
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RecordUsage inserts entry, filling in the id and timestamp when absent.
func (l *Ledger) RecordUsage(ctx context.Context, entry UsageEntry) (UsageEntry, error) {
	if strings.TrimSpace(entry.ContentID) == "" {
		return entry, fmt.Errorf("record usage: content id is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}
	if entry.PromptVersion <= 0 {
		entry.PromptVersion = 1
	}
	if entry.TotalTokens == 0 {
		entry.TotalTokens = entry.PromptTokens + entry.CompletionTokens
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO usage (
        id, content_id, source_type, model, prompt_version,
        prompt_tokens, completion_tokens, total_tokens, run_id, created_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ContentID,
		entry.SourceType,
		entry.Model,
		entry.PromptVersion,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.TotalTokens,
		nullableString(entry.RunID),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return entry, fmt.Errorf("insert usage: %w", err)
	}
	return entry, nil
}

// Totals sums every usage row.
func (l *Ledger) Totals(ctx context.Context) (UsageTotals, error) {
	var totals UsageTotals
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*),
        COALESCE(SUM(prompt_tokens), 0),
        COALESCE(SUM(completion_tokens), 0),
        COALESCE(SUM(total_tokens), 0)
        FROM usage`).Scan(&totals.Calls, &totals.PromptTokens, &totals.CompletionTokens, &totals.TotalTokens)
	if err != nil {
		return UsageTotals{}, fmt.Errorf("sum usage: %w", err)
	}
	return totals, nil
}

// TotalsByModel sums usage per model, largest token count first.
func (l *Ledger) TotalsByModel(ctx context.Context) ([]UsageTotals, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT model, COUNT(*),
        COALESCE(SUM(prompt_tokens), 0),
        COALESCE(SUM(completion_tokens), 0),
        COALESCE(SUM(total_tokens), 0)
        FROM usage
        GROUP BY model
        ORDER BY SUM(total_tokens) DESC, model ASC`)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []UsageTotals
	for rows.Next() {
		var t UsageTotals
		if err := rows.Scan(&t.Model, &t.Calls, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UsageFor lists the usage rows for one content id, newest first.
func (l *Ledger) UsageFor(ctx context.Context, contentID string) ([]UsageEntry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, content_id, source_type, model, prompt_version,
        prompt_tokens, completion_tokens, total_tokens, run_id, created_at
        FROM usage WHERE content_id = ? ORDER BY created_at DESC`, contentID)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []UsageEntry
	for rows.Next() {
		var (
			e       UsageEntry
			runID   sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ContentID, &e.SourceType, &e.Model, &e.PromptVersion,
			&e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &runID, &created); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		e.RunID = runID.String
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
