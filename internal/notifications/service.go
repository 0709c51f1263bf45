package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"readlist/internal/config"
)

const userAgent = "readlist/0.1"

// RefreshSummary is the subset of a refresh report worth announcing.
type RefreshSummary struct {
	RunID           string
	Status          string
	Items           int
	NewRaw          int
	Summarized      int
	Warnings        int
	SummaryFailures int
	SummaryError    string
	Duration        time.Duration
}

// Service defines the notification surface used by the refresh runner.
type Service interface {
	NotifyRefreshCompleted(ctx context.Context, summary RefreshSummary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRefreshCompleted(ctx context.Context, s RefreshSummary) error {
	duration := s.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d items, %d new, %d summarized in %s", s.Items, s.NewRaw, s.Summarized, duration)
	if s.Warnings > 0 {
		fmt.Fprintf(&b, "\n%d warnings", s.Warnings)
	}
	if s.SummaryFailures > 0 {
		fmt.Fprintf(&b, "\n%d summaries failed", s.SummaryFailures)
	}
	if s.SummaryError != "" {
		fmt.Fprintf(&b, "\nSummaries skipped: %s", s.SummaryError)
	}

	data := payload{
		title:   "readlist - Refresh Complete",
		message: b.String(),
		tags:    []string{"readlist", "refresh", "completed"},
	}
	if s.Status != "ok" {
		data.title = fmt.Sprintf("readlist - Refresh %s", s.Status)
		data.tags = []string{"readlist", "refresh", s.Status}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "readlist - Error",
		message:  builder.String(),
		tags:     []string{"readlist", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "readlist - Test",
		message:  "Notification system test",
		tags:     []string{"readlist", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRefreshCompleted(context.Context, RefreshSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
