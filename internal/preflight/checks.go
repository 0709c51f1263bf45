package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"readlist/internal/config"
	"readlist/internal/services/llm"
	"readlist/internal/sourcelist"
	"readlist/internal/summary"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSourceList verifies the source list parses and counts its entries by kind.
func CheckSourceList(path string) Result {
	const name = "Source list"
	entries, err := sourcelist.Parse(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	counts := map[sourcelist.Kind]int{}
	for _, e := range entries {
		counts[e.Kind]++
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d blogs, %d channels, %d videos)", path,
			counts[sourcelist.KindBlog], counts[sourcelist.KindChannel], counts[sourcelist.KindVideo]),
	}
}

// CheckPrompts verifies the prompt templates load and the overrides apply.
func CheckPrompts(path, overridesPath string) Result {
	const name = "Prompts"
	prompts, err := summary.LoadPrompts(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := prompts.ApplyOverrides(overridesPath); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("overrides: %v", err)}
	}
	parts := make([]string, 0, len(prompts))
	for _, key := range prompts.Keys() {
		parts = append(parts, fmt.Sprintf("%s v%d", key, prompts[key].Version()))
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(parts, ", ")}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	switch {
	case llm.IsStatus(err, http.StatusUnauthorized), llm.IsStatus(err, http.StatusForbidden):
		return "API key rejected (check llm.api_key or OPENAI_API_KEY)"
	case llm.IsStatus(err, http.StatusNotFound):
		return "endpoint or model not found (check llm.base_url and llm.model)"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
