package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"readlist/internal/contentindex"
	"readlist/internal/logging"
	"readlist/internal/services"
)

// State is the lifecycle of a background summary task.
type State string

const (
	StateIdle     State = "idle"
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Active reports whether a task in this state has not finished yet.
func (s State) Active() bool {
	return s == StateQueued || s == StateRunning
}

// Entry is the tracked state of one item.
type Entry struct {
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusTable tracks background summary tasks by content id.
type StatusTable struct {
	mu      sync.Mutex
	entries map[string]Entry
	done    map[string]chan struct{}
	now     func() time.Time
}

// NewStatusTable returns an empty table.
func NewStatusTable() *StatusTable {
	return &StatusTable{
		entries: make(map[string]Entry),
		done:    make(map[string]chan struct{}),
		now:     time.Now,
	}
}

// Get returns the tracked entry for id.
func (t *StatusTable) Get(id string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return e, ok
}

// Snapshot copies every tracked entry.
func (t *StatusTable) Snapshot() map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = e
	}
	return out
}

// claim marks id queued unless a task is already active, in which case the
// existing entry is returned with started=false.
func (t *StatusTable) claim(id string) (Entry, chan struct{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok && e.State.Active() {
		return e, nil, false
	}
	e := Entry{State: StateQueued, UpdatedAt: t.now().UTC()}
	t.entries[id] = e
	ch := make(chan struct{})
	t.done[id] = ch
	return e, ch, true
}

func (t *StatusTable) set(id string, state State, message string) {
	t.mu.Lock()
	t.entries[id] = Entry{State: state, Message: message, UpdatedAt: t.now().UTC()}
	t.mu.Unlock()
}

func (t *StatusTable) doneChan(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done[id]
}

// Generator is the part of Summarizer the launcher needs.
type Generator interface {
	Summarize(ctx context.Context, record contentindex.Record, force bool) (Result, error)
}

// Launcher runs single-item summaries in the background.
type Launcher struct {
	gen     Generator
	table   *StatusTable
	index   *contentindex.Index
	persist func(contentindex.Record) error
	hasSum  func(id string) bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewLauncher builds a launcher over index. persist is called with the
// updated record after a successful generation. hasSummary backs Status
// for items the table has never seen.
func NewLauncher(gen Generator, table *StatusTable, index *contentindex.Index, persist func(contentindex.Record) error, hasSummary func(id string) bool, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if table == nil {
		table = NewStatusTable()
	}
	return &Launcher{
		gen:     gen,
		table:   table,
		index:   index,
		persist: persist,
		hasSum:  hasSummary,
		logger:  logging.NewComponentLogger(logger, "summary.launcher"),
		now:     time.Now,
	}
}

// Table returns the launcher's status table.
func (l *Launcher) Table() *StatusTable { return l.table }

// Start queues a background summary for id. When a task for id is already
// queued or running, its entry is returned and nothing new is started.
func (l *Launcher) Start(ctx context.Context, id string, force bool) (Entry, error) {
	record, ok := l.index.Get(id)
	if !ok {
		return Entry{}, services.Wrap(services.ErrNotFound, "summary", "start", fmt.Sprintf("content %s", id), nil)
	}
	entry, done, started := l.table.claim(id)
	if !started {
		return entry, nil
	}
	go l.run(context.WithoutCancel(ctx), record, force, done)
	return entry, nil
}

func (l *Launcher) run(ctx context.Context, record contentindex.Record, force bool, done chan struct{}) {
	defer close(done)
	id := record.ContentID
	l.table.set(id, StateRunning, "")

	result, err := l.gen.Summarize(ctx, record, force)
	if err != nil {
		l.table.set(id, StateError, err.Error())
		logging.WarnWithContext(l.logger, "background summary failed", "summary_failed",
			logging.String(logging.FieldContentID, id),
			logging.String(logging.FieldImpact, "summary unchanged"),
			logging.Error(err))
		return
	}

	if !result.Cached || record.SummaryPath != result.SummaryPath {
		record.SummaryPath = result.SummaryPath
		record = contentindex.BuildRecord(record, l.now())
		if l.persist != nil {
			if err := l.persist(record); err != nil {
				l.table.set(id, StateError, fmt.Sprintf("summary cached but index not saved: %v", err))
				return
			}
		}
	}
	message := "generated"
	if result.Cached {
		message = "cached"
	}
	l.table.set(id, StateComplete, message)
}

// Wait blocks until the task for id ends or ctx is done. It returns
// immediately when no task was started for id.
func (l *Launcher) Wait(ctx context.Context, id string) (Entry, error) {
	ch := l.table.doneChan(id)
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		}
	}
	return l.Status(id), nil
}

// Status reports the task state for id, falling back to complete when a
// cached summary exists and idle otherwise.
func (l *Launcher) Status(id string) Entry {
	if e, ok := l.table.Get(id); ok {
		return e
	}
	if l.hasSum != nil && l.hasSum(id) {
		return Entry{State: StateComplete}
	}
	return Entry{State: StateIdle}
}
