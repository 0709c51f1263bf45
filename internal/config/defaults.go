package config

import "path/filepath"

const (
	defaultDataHome              = "~/.local/share"
	defaultCacheHome             = "~/.cache"
	defaultConfigHome            = "~/.config"
	defaultLLMBaseURL            = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel              = "gpt-4.1-mini"
	defaultLLMReferer            = "https://github.com/readlist/readlist"
	defaultLLMTitle              = "readlist"
	defaultLLMTimeoutSeconds     = 60
	defaultLLMTemperature        = 0.3
	defaultLLMRetryAttempts      = 5
	defaultLLMRetryBaseDelayMs   = 1000
	defaultLLMRetryMaxDelaySecs  = 10
	defaultBlogArticlesPerSource = 5
	defaultChannelVideoLimit     = 30
	defaultFetchPauseMillis      = 500
	defaultRequestTimeoutSeconds = 15
	defaultUserAgent             = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultArticleExtractor      = ExtractorParagraphs
	defaultMaxBodyChars          = 12000
	defaultNtfyTimeoutSeconds    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Article extractor names accepted by ingest.article_extractor.
const (
	ExtractorParagraphs  = "paragraphs"
	ExtractorReadability = "readability"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	dataDir := xdgDir("XDG_DATA_HOME", defaultDataHome, "readlist")
	configDir := xdgDir("XDG_CONFIG_HOME", defaultConfigHome, "readlist")
	return Config{
		Paths: Paths{
			DataDir:     dataDir,
			CacheDir:    xdgDir("XDG_CACHE_HOME", defaultCacheHome, "readlist"),
			TrackerDir:  filepath.Join(dataDir, "tracker"),
			LogDir:      filepath.Join(dataDir, "logs"),
			SourceList:  filepath.Join(configDir, "readinglist.md"),
			PromptsFile: filepath.Join(configDir, "summaries.yaml"),
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			Temperature:    defaultLLMTemperature,

			RetryAttempts:        defaultLLMRetryAttempts,
			RetryBaseDelayMillis: defaultLLMRetryBaseDelayMs,
			RetryMaxDelaySeconds: defaultLLMRetryMaxDelaySecs,
		},
		Ingest: Ingest{
			BlogArticlesPerSource: defaultBlogArticlesPerSource,
			ChannelVideoLimit:     defaultChannelVideoLimit,
			FetchPauseMillis:      defaultFetchPauseMillis,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			UserAgent:             defaultUserAgent,
			ArticleExtractor:      defaultArticleExtractor,
		},
		Summary: Summary{
			Enabled:      true,
			MaxBodyChars: defaultMaxBodyChars,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
