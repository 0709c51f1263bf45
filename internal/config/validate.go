package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIngest() error {
	if err := ensurePositiveMap(map[string]int{
		"ingest.blog_articles_per_source": c.Ingest.BlogArticlesPerSource,
		"ingest.channel_video_limit":      c.Ingest.ChannelVideoLimit,
		"ingest.request_timeout_seconds":  c.Ingest.RequestTimeoutSeconds,
	}); err != nil {
		return err
	}
	switch c.Ingest.ArticleExtractor {
	case ExtractorParagraphs, ExtractorReadability:
	default:
		return fmt.Errorf("ingest.article_extractor must be %q or %q, got %q",
			ExtractorParagraphs, ExtractorReadability, c.Ingest.ArticleExtractor)
	}
	return nil
}

// validateLLM checks connection shape only. A missing api key is reported
// when summarization starts so ingestion can run without credentials.
func (c *Config) validateLLM() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.RetryBaseDelayMillis > c.LLM.RetryMaxDelaySeconds*1000 {
		return errors.New("llm.retry_base_delay_ms must not exceed llm.retry_max_delay_seconds")
	}
	return nil
}

func (c *Config) validateSummary() error {
	if c.Summary.MaxBodyChars <= 0 {
		return errors.New("summary.max_body_chars must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
