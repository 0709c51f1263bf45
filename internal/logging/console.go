package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// guidanceFields are printed after ordinary attributes, in this order.
var guidanceFields = []string{FieldAlert, FieldEventType, FieldImpact, FieldErrorHint}

// consoleHandler renders one line per record:
//
//	2024-05-10T12:00:00Z WARN ingest.blog [0123456789ab]: fetch failed (https://example.com/a) error=boom event_type=fetch_failed run_id=...
//
// component and content_id form the subject, source_url follows the
// message, and run_id always comes last so lines from one refresh can be
// matched with a plain substring search.
type consoleHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Level
	withSource bool
	prefix     string
	attrs      []slog.Attr
}

func newConsoleHandler(w io.Writer, level slog.Level, withSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var line consoleLine
	for _, attr := range h.attrs {
		line.add(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.add(qualify(h.prefix, attr))
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')
	if subject := formatSubject(line.component, line.contentID); subject != "" {
		buf.WriteString(subject)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if line.sourceURL != "" {
		buf.WriteString(" (")
		buf.WriteString(line.sourceURL)
		buf.WriteByte(')')
	}
	if h.withSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range line.fields {
		writeField(&buf, f.Key, f.Value)
	}
	for _, key := range guidanceFields {
		if v, ok := line.guidance[key]; ok {
			writeField(&buf, key, v)
		}
	}
	if line.runID != "" {
		writeField(&buf, FieldRunID, slog.StringValue(line.runID))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, qualify(h.prefix, attr))
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func qualify(prefix string, attr slog.Attr) slog.Attr {
	if prefix == "" || attr.Key == "" {
		return attr
	}
	attr.Key = prefix + attr.Key
	return attr
}

// consoleLine sorts a record's attributes into the slots of the layout.
// The first value wins for subject fields; a later run_id (from
// WithContext) replaces an earlier one.
type consoleLine struct {
	component string
	contentID string
	sourceURL string
	runID     string
	guidance  map[string]slog.Value
	fields    []slog.Attr
}

func (l *consoleLine) add(attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		for _, member := range attr.Value.Group() {
			l.add(qualify(attr.Key+".", member))
		}
		return
	}
	switch attr.Key {
	case "":
		return
	case FieldComponent:
		if l.component == "" {
			l.component = valueString(attr.Value)
		}
	case FieldContentID:
		if l.contentID == "" {
			l.contentID = valueString(attr.Value)
		}
	case FieldSourceURL:
		if l.sourceURL == "" {
			l.sourceURL = valueString(attr.Value)
		}
	case FieldRunID:
		l.runID = valueString(attr.Value)
	case FieldAlert, FieldEventType, FieldImpact, FieldErrorHint:
		if l.guidance == nil {
			l.guidance = make(map[string]slog.Value, len(guidanceFields))
		}
		l.guidance[attr.Key] = attr.Value
	default:
		l.fields = append(l.fields, attr)
	}
}

func writeField(buf *bytes.Buffer, key string, v slog.Value) {
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(quoteIfNeeded(valueString(v)))
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
