package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeIngest()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	defaults := Default().Paths
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaults.DataDir},
		{"paths.cache_dir", &c.Paths.CacheDir, defaults.CacheDir},
		{"paths.tracker_dir", &c.Paths.TrackerDir, defaults.TrackerDir},
		{"paths.log_dir", &c.Paths.LogDir, defaults.LogDir},
		{"paths.source_list", &c.Paths.SourceList, defaults.SourceList},
		{"paths.prompts_file", &c.Paths.PromptsFile, defaults.PromptsFile},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" || c.LLM.Model == defaultLLMModel {
		if value, ok := os.LookupEnv("OPENAI_MODEL"); ok && strings.TrimSpace(value) != "" {
			c.LLM.Model = strings.TrimSpace(value)
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	if c.LLM.RetryBaseDelayMillis <= 0 {
		c.LLM.RetryBaseDelayMillis = defaultLLMRetryBaseDelayMs
	}
	if c.LLM.RetryMaxDelaySeconds <= 0 {
		c.LLM.RetryMaxDelaySeconds = defaultLLMRetryMaxDelaySecs
	}
}

func (c *Config) normalizeIngest() {
	c.Ingest.UserAgent = strings.TrimSpace(c.Ingest.UserAgent)
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = defaultUserAgent
	}
	c.Ingest.ArticleExtractor = strings.ToLower(strings.TrimSpace(c.Ingest.ArticleExtractor))
	if c.Ingest.ArticleExtractor == "" {
		c.Ingest.ArticleExtractor = defaultArticleExtractor
	}
	if c.Ingest.FetchPauseMillis < 0 {
		c.Ingest.FetchPauseMillis = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
