package contentcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"readlist/internal/fileutil"
	"readlist/internal/logging"
	"readlist/internal/textutil"
)

// Store persists raw payloads and summaries as one JSON file per item.
type Store struct {
	rawDir     string
	summaryDir string
	logger     *slog.Logger
	now        func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp cached_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store rooted at rawDir and summaryDir. Directories are created lazily.
func New(rawDir, summaryDir string, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		rawDir:     rawDir,
		summaryDir: summaryDir,
		logger:     logging.NewComponentLogger(logger, "cache"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hash returns the sha256 hex digest used as the content hash.
func Hash(text string) string {
	return textutil.SHA256Hex(text)
}

// RawPath returns the raw payload location for (ns, id).
func (s *Store) RawPath(ns Namespace, id string) string {
	return filepath.Join(s.rawDir, string(ns), id+".json")
}

// SummaryPath returns the summary payload location for id.
func (s *Store) SummaryPath(id string) string {
	return filepath.Join(s.summaryDir, id+".json")
}

// LoadRawBlog returns the cached blog payload for id.
func (s *Store) LoadRawBlog(id string) (RawBlog, bool) {
	var payload RawBlog
	if !s.load(s.RawPath(NamespaceBlog, id), id, &payload) {
		return RawBlog{}, false
	}
	payload.normalize()
	return payload, true
}

// LoadRawVideo returns the cached video payload for id.
func (s *Store) LoadRawVideo(id string) (RawVideo, bool) {
	var payload RawVideo
	if !s.load(s.RawPath(NamespaceVideo, id), id, &payload) {
		return RawVideo{}, false
	}
	payload.normalize()
	return payload, true
}

// SaveRawBlog overwrites the blog payload for id, stamping cached_at when unset.
func (s *Store) SaveRawBlog(id string, payload RawBlog) error {
	if payload.CachedAt.IsZero() {
		payload.CachedAt = s.now().UTC()
	}
	payload.normalize()
	return s.save(s.RawPath(NamespaceBlog, id), id, payload)
}

// SaveRawVideo overwrites the video payload for id, stamping cached_at when unset.
func (s *Store) SaveRawVideo(id string, payload RawVideo) error {
	if payload.CachedAt.IsZero() {
		payload.CachedAt = s.now().UTC()
	}
	payload.normalize()
	return s.save(s.RawPath(NamespaceVideo, id), id, payload)
}

// RawHash returns the content hash recorded in the raw payload for (ns, id).
func (s *Store) RawHash(ns Namespace, id string) (string, bool) {
	var header struct {
		ContentHash string `json:"content_hash"`
	}
	if !s.load(s.RawPath(ns, id), id, &header) {
		return "", false
	}
	return header.ContentHash, true
}

// RawIsCurrent reports whether a raw payload exists for (ns, id) with the given hash.
func (s *Store) RawIsCurrent(ns Namespace, id, contentHash string) bool {
	cached, ok := s.RawHash(ns, id)
	return ok && cached == contentHash
}

// LoadSummary returns the cached summary for id.
func (s *Store) LoadSummary(id string) (SummaryPayload, bool) {
	var payload SummaryPayload
	if !s.load(s.SummaryPath(id), id, &payload) {
		return SummaryPayload{}, false
	}
	return payload, true
}

// SaveSummary overwrites the summary for id, stamping cached_at when unset.
func (s *Store) SaveSummary(id string, payload SummaryPayload) error {
	if payload.CachedAt.IsZero() {
		payload.CachedAt = s.now().UTC()
	}
	return s.save(s.SummaryPath(id), id, payload)
}

// RemoveRaw deletes the raw payload for (ns, id). Missing files are ignored.
func (s *Store) RemoveRaw(ns Namespace, id string) error {
	return removeIfExists(s.RawPath(ns, id))
}

// RemoveSummary deletes the summary for id. Missing files are ignored.
func (s *Store) RemoveSummary(id string) error {
	return removeIfExists(s.SummaryPath(id))
}

// RawIDs lists the ids with a raw payload in ns, sorted.
func (s *Store) RawIDs(ns Namespace) ([]string, error) {
	return listIDs(filepath.Join(s.rawDir, string(ns)))
}

// SummaryIDs lists the ids with a cached summary, sorted.
func (s *Store) SummaryIDs() ([]string, error) {
	return listIDs(s.summaryDir)
}

func (s *Store) load(path, id string, v any) bool {
	if !validID(id) {
		return false
	}
	found, err := fileutil.ReadJSON(path, v)
	if err != nil {
		logging.WarnWithContext(s.logger, "cached payload unreadable", "cache_payload_corrupt",
			logging.String(logging.FieldContentID, id),
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the item will be re-fetched on the next refresh"),
			logging.String(logging.FieldImpact, "payload treated as absent"))
		return false
	}
	return found
}

func (s *Store) save(path, id string, v any) error {
	if !validID(id) {
		return fmt.Errorf("invalid content id %q", id)
	}
	if err := fileutil.WriteJSONAtomic(path, v); err != nil {
		return fmt.Errorf("write cache payload %s: %w", id, err)
	}
	return nil
}

func validID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
