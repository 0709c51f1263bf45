package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readlist/internal/config"
	"readlist/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "readlist.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponentAndContentID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "ingest.blog")
	logger.Info("article cached",
		logging.String(logging.FieldContentID, "0123456789abcdef0123"),
		logging.Int("chars", 42))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "ingest.blog [0123456789ab]: article cached") {
		t.Fatalf("expected component subject prefix, got %q", line)
	}
	if !strings.Contains(line, "chars=42") {
		t.Fatalf("expected attribute in output, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("fetch failed", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry["msg"] != "fetch failed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "transcript missing", "transcript_missing",
		logging.String(logging.FieldImpact, "summary will use title only"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if entry[logging.FieldEventType] != "transcript_missing" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if entry[logging.FieldImpact] != "summary will use title only" {
		t.Fatalf("expected caller impact to be kept, got %v", entry[logging.FieldImpact])
	}
}

func TestWithContextAddsRunID(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "run-123")
	fields := logging.ContextFields(ctx)
	if len(fields) != 1 || fields[0].Key != logging.FieldRunID || fields[0].Value.String() != "run-123" {
		t.Fatalf("unexpected context fields: %v", fields)
	}
	if logging.WithContext(ctx, nil) == nil {
		t.Fatal("expected logger")
	}
}

func TestConsoleLayoutPlacesSourceURLGuidanceAndRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "layout.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-42")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "ingest.blog"))
	logging.WarnWithContext(logger, "article fetch failed", "article_fetch_failed",
		logging.String(logging.FieldImpact, "article skipped"),
		logging.String(logging.FieldSourceURL, "https://blog.example.com/post"),
		logging.Int("status", 502),
		logging.Alert("review"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))
	if !strings.Contains(line, " WARN ingest.blog: article fetch failed (https://blog.example.com/post) status=502 ") {
		t.Fatalf("unexpected head of line: %q", line)
	}
	order := []string{"status=502", "alert=review", "event_type=article_fetch_failed", "impact=\"article skipped\"", "error_hint=", "run_id=run-42"}
	last := -1
	for _, part := range order {
		idx := strings.Index(line, part)
		if idx <= last {
			t.Fatalf("expected %q after previous fields in %q", part, line)
		}
		last = idx
	}
	if !strings.HasSuffix(line, "run_id=run-42") {
		t.Fatalf("run_id should end the line: %q", line)
	}
}

func TestConsoleGroupsUseDottedKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "group.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("counts").Info("refresh finished", logging.Int("blogs", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "refresh finished counts.blogs=3") {
		t.Fatalf("expected grouped key, got %q", content)
	}
}
