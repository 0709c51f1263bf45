package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"readlist/internal/config"
	"readlist/internal/notifications"
)

type capturedRequest struct {
	method   string
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, func() capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = capturedRequest{
			method:   r.Method,
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic rejected"))
	}))
	t.Cleanup(server.Close)
	return server, func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRefreshCompleted(context.Background(), notifications.RefreshSummary{Status: "ok"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "refresh ok",
			send: func(s notifications.Service) error {
				return s.NotifyRefreshCompleted(context.Background(), notifications.RefreshSummary{
					Status: "ok", Items: 12, NewRaw: 3, Summarized: 3, Duration: 42 * time.Second,
				})
			},
			expectTitle:   "readlist - Refresh Complete",
			expectMessage: "12 items, 3 new, 3 summarized in 42s",
			expectTags:    "readlist,refresh,completed",
		},
		{
			name: "refresh partial",
			send: func(s notifications.Service) error {
				return s.NotifyRefreshCompleted(context.Background(), notifications.RefreshSummary{
					Status: "partial", Items: 4, Warnings: 2, SummaryFailures: 1, Duration: 1500 * time.Millisecond,
				})
			},
			expectTitle:    "readlist - Refresh partial",
			expectMessage:  "4 items, 0 new, 0 summarized in 2s\n2 warnings\n1 summaries failed",
			expectTags:     "readlist,refresh,partial",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("lock held"), "refresh")
			},
			expectTitle:    "readlist - Error",
			expectMessage:  "Error with refresh: lock held",
			expectTags:     "readlist,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := newCaptureServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			got := captured()
			if got.method != http.MethodPost {
				t.Fatalf("unexpected method: %s", got.method)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceReportsRejectedRequests(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403: topic rejected") {
		t.Fatalf("unexpected error: %v", err)
	}
}
