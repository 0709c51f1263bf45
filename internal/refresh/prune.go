package refresh

import (
	"context"
	"errors"

	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/logging"
)

// PruneResult counts reclaimed payloads.
type PruneResult struct {
	RawRemoved     int
	SummaryRemoved int
}

// Prune removes raw and summary payloads whose content id is no longer in
// the index, such as the losers of URL deduplication.
func (r *Runner) Prune(ctx context.Context) (PruneResult, error) {
	release, err := r.acquire()
	if err != nil {
		return PruneResult{}, err
	}
	defer release()

	s := r.openStores()
	var result PruneResult
	var errs []error

	live := map[contentcache.Namespace]map[string]struct{}{
		contentcache.NamespaceBlog:  {},
		contentcache.NamespaceVideo: {},
	}
	all := map[string]struct{}{}
	for _, rec := range s.index.All() {
		all[rec.ContentID] = struct{}{}
		switch rec.SourceType {
		case contentindex.SourceTypeBlog:
			live[contentcache.NamespaceBlog][rec.ContentID] = struct{}{}
		case contentindex.SourceTypeVideo:
			live[contentcache.NamespaceVideo][rec.ContentID] = struct{}{}
		}
	}

	for ns, keep := range live {
		ids, err := s.cache.RawIDs(ns)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if _, ok := keep[id]; ok {
				continue
			}
			if err := s.cache.RemoveRaw(ns, id); err != nil {
				errs = append(errs, err)
				continue
			}
			result.RawRemoved++
			r.logger.Debug("removed orphan raw payload",
				logging.String(logging.FieldContentID, id),
				logging.String("namespace", string(ns)))
		}
	}

	ids, err := s.cache.SummaryIDs()
	if err != nil {
		errs = append(errs, err)
	}
	for _, id := range ids {
		if _, ok := all[id]; ok {
			continue
		}
		if err := s.cache.RemoveSummary(id); err != nil {
			errs = append(errs, err)
			continue
		}
		result.SummaryRemoved++
	}

	r.logger.Info("cache pruned",
		logging.Int("raw_removed", result.RawRemoved),
		logging.Int("summary_removed", result.SummaryRemoved))
	return result, errors.Join(errs...)
}
