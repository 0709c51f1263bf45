package refresh

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"readlist/internal/contentindex"
	"readlist/internal/ingest"
	"readlist/internal/logging"
	"readlist/internal/services"
	"readlist/internal/summary"
)

// Summarize regenerates summaries outside a full refresh. With no ids every
// indexed record is visited; otherwise each id runs as a background task
// and the call waits for all of them.
func (r *Runner) Summarize(ctx context.Context, ids []string, force bool) (*ingest.Report, error) {
	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	report := ingest.NewReport(runID, r.now())
	s := r.openStores()

	for _, id := range ids {
		if _, ok := s.index.Get(id); !ok {
			return nil, services.Wrap(services.ErrNotFound, "summarize", "lookup", fmt.Sprintf("content %s is not indexed", id), nil)
		}
	}

	summarizer, err := r.newSummarizer(s.cache)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		r.indexMu.Lock()
		err = summarizer.SummarizeAll(ctx, s.index, force, report)
		r.indexMu.Unlock()
		report.Finish(r.now())
		return report, err
	}

	persist := func(record contentindex.Record) error {
		r.indexMu.Lock()
		defer r.indexMu.Unlock()
		s.index.Upsert(record)
		return s.index.Save()
	}
	hasSummary := func(id string) bool {
		_, ok := s.cache.LoadSummary(id)
		return ok
	}
	launcher := summary.NewLauncher(summarizer, summary.NewStatusTable(), s.index, persist, hasSummary, r.logger)
	for _, id := range ids {
		if _, err := launcher.Start(ctx, id, force); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		if _, err := launcher.Wait(ctx, id); err != nil {
			return report, err
		}
	}
	states := launcher.Table().Snapshot()
	for _, id := range ids {
		entry := states[id]
		switch entry.State {
		case summary.StateComplete:
			if entry.Message == "cached" {
				report.Count(func(c *ingest.Counts) { c.SummariesCached++ })
			} else {
				report.Count(func(c *ingest.Counts) { c.Summarized++ })
			}
		case summary.StateError:
			record, _ := s.index.Get(id)
			report.Fail(ingest.Failure{ContentID: id, Title: record.Title, Reason: entry.Message})
		}
	}
	report.Finish(r.now())
	return report, nil
}
