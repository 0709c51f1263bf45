package ingest

import (
	"sync"
	"time"
)

// Stages used in report warnings.
const (
	StageLinks      = "links"
	StageArticle    = "article"
	StageResolve    = "resolve"
	StageChannel    = "channel"
	StageMetadata   = "metadata"
	StageTranscript = "transcript"
	StageCache      = "cache"
)

// Warning is one per-item problem that did not abort the run.
type Warning struct {
	Source string `json:"source"`
	Item   string `json:"item,omitempty"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Failure is a per-item summarization error.
type Failure struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title,omitempty"`
	Reason    string `json:"reason"`
}

// Counts tallies what a run did.
type Counts struct {
	BlogItems        int `json:"blog_items"`
	VideoItems       int `json:"video_items"`
	RawWritten       int `json:"raw_written"`
	RawReused        int `json:"raw_reused"`
	Deduplicated     int `json:"deduplicated"`
	Summarized       int `json:"summarized"`
	SummariesCached  int `json:"summaries_cached"`
	SummariesSkipped int `json:"summaries_skipped"`
}

// Report collects the outcome of one refresh. Adders are safe for
// concurrent use; read the fields once the run has finished.
type Report struct {
	mu sync.Mutex

	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Counts          Counts    `json:"counts"`
	Warnings        []Warning `json:"warnings"`
	SummaryError    string    `json:"summary_error,omitempty"`
	SummaryFailures []Failure `json:"summary_failures"`
}

// NewReport starts a report for runID.
func NewReport(runID string, started time.Time) *Report {
	return &Report{RunID: runID, StartedAt: started.UTC()}
}

// Warn appends a warning.
func (r *Report) Warn(w Warning) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.Warnings = append(r.Warnings, w)
	r.mu.Unlock()
}

// Fail appends a summarization failure.
func (r *Report) Fail(f Failure) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.SummaryFailures = append(r.SummaryFailures, f)
	r.mu.Unlock()
}

// SetSummaryError records the error that aborted the summarization phase.
func (r *Report) SetSummaryError(err error) {
	if r == nil || err == nil {
		return
	}
	r.mu.Lock()
	r.SummaryError = err.Error()
	r.mu.Unlock()
}

// Count applies fn to the counters under the report lock.
func (r *Report) Count(fn func(*Counts)) {
	if r == nil {
		return
	}
	r.mu.Lock()
	fn(&r.Counts)
	r.mu.Unlock()
}

// Finish stamps the end time.
func (r *Report) Finish(at time.Time) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.FinishedAt = at.UTC()
	r.mu.Unlock()
}

// Status classifies the run for the ledger: "failed" when summarization was
// aborted, "partial" when items failed or warned, "ok" otherwise.
func (r *Report) Status() string {
	if r == nil {
		return "ok"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.SummaryError != "":
		return "failed"
	case len(r.Warnings) > 0 || len(r.SummaryFailures) > 0:
		return "partial"
	default:
		return "ok"
	}
}
