// Package httpfetch performs the polite GET requests used by the scrapers.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"readlist/internal/services"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "readlist/1.0"
	maxBodyBytes     = 10 << 20
)

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

// Response is a fetched document.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	ContentType string
	Body        []byte
}

// Client fetches documents with a fixed user agent and timeout.
type Client struct {
	http      HTTPDoer
	userAgent string
}

// New returns a client sending userAgent with each request.
func New(userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get fetches rawURL. Non-2xx responses return a *StatusError wrapped with a
// services marker: 404/410 are ErrNotFound, everything else ErrTransient.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, services.Wrap(services.ErrValidation, "fetch", "build request", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		marker := services.ErrTransient
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			marker = services.ErrTimeout
		}
		return Response{}, services.Wrap(marker, "fetch", "GET", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		statusErr := &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			marker = services.ErrNotFound
		}
		return Response{}, services.Wrap(marker, "fetch", "GET", "", statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, services.Wrap(services.ErrTransient, "fetch", "read body", rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return Response{URL: finalURL, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// GetString is Get returning the body as a string.
func (c *Client) GetString(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}
