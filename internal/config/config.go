package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	CacheDir    string `toml:"cache_dir"`
	TrackerDir  string `toml:"tracker_dir"`
	LogDir      string `toml:"log_dir"`
	SourceList  string `toml:"source_list"`
	PromptsFile string `toml:"prompts_file"`
}

// LLM contains the summarization endpoint settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`

	RetryAttempts        int `toml:"retry_attempts"`
	RetryBaseDelayMillis int `toml:"retry_base_delay_ms"`
	RetryMaxDelaySeconds int `toml:"retry_max_delay_seconds"`
}

// Ingest contains fetch limits and politeness settings for the ingestors.
type Ingest struct {
	BlogArticlesPerSource int    `toml:"blog_articles_per_source"`
	ChannelVideoLimit     int    `toml:"channel_video_limit"`
	FetchPauseMillis      int    `toml:"fetch_pause_ms"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
	// ArticleExtractor selects how blog article bodies are extracted:
	// "paragraphs" (selector heuristics) or "readability".
	ArticleExtractor string `toml:"article_extractor"`
	DetectLanguage   bool   `toml:"detect_language"`
}

// Summary contains summarization behaviour.
type Summary struct {
	Enabled      bool `toml:"enabled"`
	MaxBodyChars int  `toml:"max_body_chars"`
}

// Notifications contains the optional ntfy endpoint for refresh alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for readlist.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, tracked transcript store, logs, source list, prompts
//   - LLM: chat completion endpoint used for summaries
//   - Ingest: per-source limits, pause between fetches, HTTP settings
//   - Summary: summary generation switches and prompt body truncation
//   - Notifications: ntfy topic for refresh results
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Ingest        Ingest        `toml:"ingest"`
	Summary       Summary       `toml:"summary"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/readlist/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("readlist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, cache, tracker, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.RawCacheDir(),
		c.SummaryCacheDir(),
		c.Paths.TrackerDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RawCacheDir is the root of the raw payload namespaces.
func (c *Config) RawCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "raw")
}

// SummaryCacheDir holds one summary payload per content id.
func (c *Config) SummaryCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "summaries")
}

// IndexPath is the content index file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.DataDir, "content_index.json")
}

// UserTagsPath is the per-item user tag file.
func (c *Config) UserTagsPath() string {
	return filepath.Join(c.Paths.DataDir, "user_tags.json")
}

// PromptOverridesPath is the prompt override file written by `prompts set`.
func (c *Config) PromptOverridesPath() string {
	return filepath.Join(c.Paths.DataDir, "prompt_overrides.json")
}

// LedgerPath is the SQLite database for usage and run history.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath is the refresh run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "refresh.lock")
}

// LogPath returns the log file written next to console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "readlist.log")
}

// FetchPause returns the politeness delay between external fetches.
func (c *Config) FetchPause() time.Duration {
	if c.Ingest.FetchPauseMillis <= 0 {
		return 0
	}
	return time.Duration(c.Ingest.FetchPauseMillis) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout for ingestion fetches.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Ingest.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func xdgDir(envKey, fallback string, elem ...string) string {
	if base, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(append([]string{base}, elem...)...)
	}
	return filepath.Join(append([]string{fallback}, elem...)...)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings used by the summarizer.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		Temperature:    c.LLM.Temperature,
		RetryAttempts:  c.LLM.RetryAttempts,
		RetryBaseDelay: time.Duration(c.LLM.RetryBaseDelayMillis) * time.Millisecond,
		RetryMaxDelay:  time.Duration(c.LLM.RetryMaxDelaySeconds) * time.Second,
	}
}
