package contentindex

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"readlist/internal/fileutil"
	"readlist/internal/logging"
)

// Index is the persistent set of content records keyed by content id.
type Index struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	records map[string]Record
}

// Open loads the index at path. A missing file yields an empty index; a
// corrupt one yields an empty index and a warning.
func Open(path string, logger *slog.Logger) *Index {
	idx := &Index{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "index"),
		records: make(map[string]Record),
	}

	var records []Record
	found, err := fileutil.ReadJSON(path, &records)
	if err != nil {
		logging.WarnWithContext(idx.logger, "content index unreadable", "index_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run refresh to rebuild the index from the source list"),
			logging.String(logging.FieldImpact, "index starts empty"))
		return idx
	}
	if !found {
		return idx
	}
	for _, record := range records {
		if record.ContentID == "" {
			continue
		}
		if record.Categories == nil {
			record.Categories = []string{}
		}
		if record.Tags == nil {
			record.Tags = []string{}
		}
		idx.records[record.ContentID] = record
	}
	idx.logger.Debug("loaded content index",
		logging.Int("record_count", len(idx.records)),
		logging.String("path", path))
	return idx
}

// Path returns the backing file location.
func (i *Index) Path() string {
	return i.path
}

// Upsert replaces any record with the same content id.
func (i *Index) Upsert(record Record) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records[record.ContentID] = record
}

// Get returns the record for id.
func (i *Index) Get(id string) (Record, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	record, ok := i.records[id]
	return record, ok
}

// Remove deletes the record for id and reports whether it existed.
func (i *Index) Remove(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.records[id]; !ok {
		return false
	}
	delete(i.records, id)
	return true
}

// Len returns the number of records.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records)
}

// All returns a copy of every record sorted by content id.
func (i *Index) All() []Record {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.sortedLocked()
}

// Save rewrites the whole index file atomically.
func (i *Index) Save() error {
	i.mu.RLock()
	records := i.sortedLocked()
	i.mu.RUnlock()

	if err := fileutil.WriteJSONAtomic(i.path, records); err != nil {
		return fmt.Errorf("save content index: %w", err)
	}
	return nil
}

func (i *Index) sortedLocked() []Record {
	out := make([]Record, 0, len(i.records))
	for _, record := range i.records {
		out = append(out, record)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].ContentID < out[b].ContentID
	})
	return out
}
