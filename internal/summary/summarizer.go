package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"readlist/internal/config"
	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/ingest"
	"readlist/internal/ledger"
	"readlist/internal/logging"
	"readlist/internal/services/llm"
)

const defaultMaxBodyChars = 12000

// UsageRecorder receives token accounting for each generated summary.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, entry ledger.UsageEntry) (ledger.UsageEntry, error)
}

// Result describes the summary for one record.
type Result struct {
	ContentID     string
	Text          string
	Model         string
	PromptVersion int
	Usage         *contentcache.Usage
	SummaryPath   string
	Cached        bool
}

// Summarizer generates and caches summaries.
type Summarizer struct {
	cache        *contentcache.Store
	capability   Capability
	prompts      Prompts
	userTags     UserTags
	model        string
	temperature  float64
	maxBodyChars int
	usage        UsageRecorder
	logger       *slog.Logger
	now          func() time.Time
}

// Option customises a Summarizer.
type Option func(*Summarizer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithUsageRecorder records token usage for every generated summary.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(s *Summarizer) { s.usage = r }
}

// WithUserTags supplies user tags merged into the prompt.
func WithUserTags(tags UserTags) Option {
	return func(s *Summarizer) {
		if tags != nil {
			s.userTags = tags
		}
	}
}

// WithMaxBodyChars caps the transcript or article text sent to the model.
func WithMaxBodyChars(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxBodyChars = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *Summarizer) { s.temperature = t }
}

// WithModel names the model stamped on payloads when the capability does
// not report one.
func WithModel(model string) Option {
	return func(s *Summarizer) { s.model = strings.TrimSpace(model) }
}

// New constructs a Summarizer.
func New(cache *contentcache.Store, capability Capability, prompts Prompts, logger *slog.Logger, opts ...Option) *Summarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Summarizer{
		cache:        cache,
		capability:   capability,
		prompts:      prompts,
		userTags:     UserTags{},
		temperature:  0.3,
		maxBodyChars: defaultMaxBodyChars,
		logger:       logging.NewComponentLogger(logger, "summary"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig builds a Summarizer backed by the configured LLM endpoint.
// A missing API key or prompt file yields a *ConfigError.
func NewFromConfig(cfg *config.Config, cache *contentcache.Store, logger *slog.Logger, opts ...Option) (*Summarizer, error) {
	if cfg == nil {
		return nil, &ConfigError{Reason: "configuration is nil"}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	llmCfg := cfg.GetLLM()
	if llmCfg.APIKey == "" {
		return nil, &ConfigError{
			Reason: "llm.api_key is not set",
			Hint:   "set OPENAI_API_KEY or llm.api_key in the config file",
			Err:    llm.ErrAPIKeyRequired,
		}
	}

	prompts, err := LoadPrompts(cfg.Paths.PromptsFile)
	if err != nil {
		return nil, err
	}
	if err := prompts.ApplyOverrides(cfg.PromptOverridesPath()); err != nil {
		logging.WarnWithContext(logger, "prompt overrides ignored", "prompt_overrides_invalid",
			logging.String("path", cfg.PromptOverridesPath()),
			logging.String(logging.FieldImpact, "base prompts from the prompts file are used"),
			logging.Error(err))
	}
	userTags, err := LoadUserTags(cfg.UserTagsPath())
	if err != nil {
		logging.WarnWithContext(logger, "user tags ignored", "user_tags_invalid",
			logging.String("path", cfg.UserTagsPath()),
			logging.String(logging.FieldImpact, "prompts will only include source list tags"),
			logging.Error(err))
	}

	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(llmCfg.RetryAttempts), llm.WithRetryBackoff(llmCfg.RetryBaseDelay, llmCfg.RetryMaxDelay))
	base := []Option{
		WithModel(client.Model()),
		WithTemperature(llmCfg.Temperature),
		WithMaxBodyChars(cfg.Summary.MaxBodyChars),
		WithUserTags(userTags),
	}
	return New(cache, NewLLMCapability(client), prompts, logger, append(base, opts...)...), nil
}

// Prompts returns the active prompt set.
func (s *Summarizer) Prompts() Prompts { return s.prompts }

// Cache returns the backing content cache.
func (s *Summarizer) Cache() *contentcache.Store { return s.cache }

// Summarize returns the summary for record, generating it when the cached
// payload is missing, stale, or force is set. Nothing is written on failure.
func (s *Summarizer) Summarize(ctx context.Context, record contentindex.Record, force bool) (Result, error) {
	key, err := KeyFor(record.SourceType)
	if err != nil {
		return Result{}, err
	}
	tmpl, ok := s.prompts[key]
	if !ok {
		return Result{}, &ConfigError{Reason: fmt.Sprintf("prompt %q missing from prompts file", key)}
	}
	version := tmpl.Version()

	contentHash, vars, err := s.loadRaw(record, key)
	if err != nil {
		return Result{}, err
	}

	path := s.cache.SummaryPath(record.ContentID)
	if !force {
		if existing, ok := s.cache.LoadSummary(record.ContentID); ok && existing.IsValidFor(contentHash, version) {
			return Result{
				ContentID:     record.ContentID,
				Text:          existing.Summary,
				Model:         existing.Model,
				PromptVersion: existing.PromptVersion,
				Usage:         existing.Usage,
				SummaryPath:   path,
				Cached:        true,
			}, nil
		}
	}

	user, err := Render(tmpl.User, vars)
	if err != nil {
		return Result{}, &ConfigError{Reason: fmt.Sprintf("render prompt %q", key), Err: err}
	}
	completion, err := s.capability.Summarize(ctx, Prompt{System: tmpl.System, User: user, Temperature: s.temperature})
	if err != nil {
		return Result{}, fmt.Errorf("summarize %s: %w", record.ContentID, err)
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return Result{}, fmt.Errorf("summarize %s: empty completion", record.ContentID)
	}
	model := completion.Model
	if model == "" {
		model = s.model
	}

	payload := contentcache.SummaryPayload{
		Summary:       text,
		Model:         model,
		PromptVersion: version,
		ContentHash:   contentHash,
		Usage:         completion.Usage,
		CachedAt:      s.now().UTC(),
	}
	if err := s.cache.SaveSummary(record.ContentID, payload); err != nil {
		return Result{}, err
	}
	s.recordUsage(ctx, record, payload)

	return Result{
		ContentID:     record.ContentID,
		Text:          text,
		Model:         model,
		PromptVersion: version,
		Usage:         completion.Usage,
		SummaryPath:   path,
	}, nil
}

func (s *Summarizer) loadRaw(record contentindex.Record, key string) (string, map[string]string, error) {
	tags := MergeTags(record.Tags, s.userTags[record.ContentID])
	published := fallback(record.PublishedAt, "Unknown")

	if key == KeyVideo {
		raw, ok := s.cache.LoadRawVideo(record.ContentID)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrRawMissing, record.ContentID)
		}
		if strings.TrimSpace(raw.Transcript) == "" {
			return "", nil, fmt.Errorf("%w: %s has no transcript", ErrNoContent, record.ContentID)
		}
		return raw.ContentHash, map[string]string{
			"title":        fallback(record.Title, fallback(raw.Title, "Unknown")),
			"channel":      fallback(raw.ChannelName, fallback(record.Author, "Unknown Channel")),
			"published_at": published,
			"transcript":   truncateRunes(raw.Transcript, s.maxBodyChars),
			"tags":         tags,
		}, nil
	}

	raw, ok := s.cache.LoadRawBlog(record.ContentID)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrRawMissing, record.ContentID)
	}
	if strings.TrimSpace(raw.Text) == "" {
		return "", nil, fmt.Errorf("%w: %s has no article text", ErrNoContent, record.ContentID)
	}
	return raw.ContentHash, map[string]string{
		"title":        fallback(record.Title, fallback(raw.Title, "Unknown")),
		"author":       fallback(raw.Author, fallback(record.Author, "Unknown")),
		"published_at": published,
		"url":          fallback(record.OriginalURL, raw.OriginalURL),
		"content":      truncateRunes(raw.Text, s.maxBodyChars),
		"tags":         tags,
	}, nil
}

func (s *Summarizer) recordUsage(ctx context.Context, record contentindex.Record, payload contentcache.SummaryPayload) {
	if s.usage == nil {
		return
	}
	entry := ledger.UsageEntry{
		ContentID:     record.ContentID,
		SourceType:    record.SourceType,
		Model:         payload.Model,
		PromptVersion: payload.PromptVersion,
		CreatedAt:     payload.CachedAt,
	}
	if payload.Usage != nil {
		entry.PromptTokens = payload.Usage.PromptTokens
		entry.CompletionTokens = payload.Usage.CompletionTokens
		entry.TotalTokens = payload.Usage.TotalTokens
	}
	if runID, ok := logging.RunIDFromContext(ctx); ok {
		entry.RunID = runID
	}
	if _, err := s.usage.RecordUsage(ctx, entry); err != nil {
		logging.WarnWithContext(s.logger, "usage not recorded", "usage_record_failed",
			logging.String(logging.FieldContentID, record.ContentID),
			logging.String(logging.FieldImpact, "token totals in `readlist status` will be low"),
			logging.Error(err))
	}
}

// SummarizeAll summarises every record in index, updating summary paths
// and collecting per-item failures into report. The index is saved at the
// end. Cancellation, a *ConfigError or a failed save is returned as an
// error; a config error stops the pass after saving what was already done.
func (s *Summarizer) SummarizeAll(ctx context.Context, index *contentindex.Index, force bool, report *ingest.Report) error {
	for _, record := range index.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := s.Summarize(ctx, record, force)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoContent):
			report.Count(func(c *ingest.Counts) { c.SummariesSkipped++ })
			s.logger.Debug("summary skipped",
				logging.String(logging.FieldContentID, record.ContentID),
				logging.String("reason", err.Error()))
			continue
		case errors.Is(err, context.Canceled):
			return err
		case IsConfigError(err):
			if saveErr := index.Save(); saveErr != nil {
				return errors.Join(err, fmt.Errorf("save index: %w", saveErr))
			}
			return err
		default:
			report.Fail(ingest.Failure{ContentID: record.ContentID, Title: record.Title, Reason: err.Error()})
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "summary failed", "summary_failed",
				logging.String(logging.FieldContentID, record.ContentID),
				logging.String(logging.FieldSourceURL, record.OriginalURL),
				logging.String(logging.FieldImpact, "item keeps its previous summary, if any"),
				logging.Error(err))
			continue
		}

		if result.Cached {
			report.Count(func(c *ingest.Counts) { c.SummariesCached++ })
		} else {
			report.Count(func(c *ingest.Counts) { c.Summarized++ })
			s.logger.Info("summary generated",
				logging.String(logging.FieldContentID, record.ContentID),
				logging.String("model", result.Model),
				logging.Int("prompt_version", result.PromptVersion))
		}
		if result.Cached && record.SummaryPath == result.SummaryPath {
			continue
		}
		record.SummaryPath = result.SummaryPath
		index.Upsert(contentindex.BuildRecord(record, s.now()))
	}
	if err := index.Save(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
