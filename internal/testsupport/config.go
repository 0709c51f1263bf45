package testsupport

import (
	"path/filepath"
	"testing"

	"readlist/internal/config"
	"readlist/internal/summary"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Fetch pauses are disabled and the LLM key is empty unless an option sets it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.TrackerDir = filepath.Join(base, "tracker")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SourceList = filepath.Join(base, "readinglist.md")
	cfgVal.Paths.PromptsFile = filepath.Join(base, "summaries.yaml")
	cfgVal.LLM.APIKey = ""
	cfgVal.Ingest.FetchPauseMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIKey sets the LLM API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithSourceList writes content to the config's source list file.
func WithSourceList(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.SourceList, content)
	}
}

// WithDefaultPrompts writes the built-in prompts to the config's prompts file.
func WithDefaultPrompts() ConfigOption {
	return func(b *configBuilder) {
		if _, err := summary.WriteDefaultPrompts(b.cfg.Paths.PromptsFile); err != nil {
			b.t.Fatalf("write prompts: %v", err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
