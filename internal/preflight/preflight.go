package preflight

import (
	"context"

	"readlist/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// cover features a refresh can run without.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every check for cfg. The LLM is contacted only when
// checkLLM is set and an api key is configured.
func RunAll(ctx context.Context, cfg *config.Config, checkLLM bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Tracker directory", cfg.Paths.TrackerDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSourceList(cfg.Paths.SourceList),
		CheckPrompts(cfg.Paths.PromptsFile, cfg.PromptOverridesPath()),
	}

	llmResult := Result{Name: "LLM", Optional: true}
	switch {
	case cfg.LLM.APIKey == "":
		llmResult.Detail = "API key missing (summaries will be skipped)"
	case !checkLLM:
		llmResult.Passed = true
		llmResult.Detail = "API key set (not contacted)"
	default:
		llmResult = CheckLLM(ctx, "LLM", cfg.GetLLM())
		llmResult.Optional = true
	}
	results = append(results, llmResult)

	notify := Result{Name: "Notifications", Optional: true, Passed: true, Detail: "Disabled"}
	if cfg.Notifications.NtfyTopic != "" {
		notify.Detail = cfg.Notifications.NtfyTopic
	}
	return append(results, notify)
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
