package ingest

import (
	"context"
	"log/slog"

	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/logging"
	"readlist/internal/sourcelist"
	"readlist/internal/textutil"
	"readlist/internal/tracker"
	"readlist/internal/youtube"
)

const transcriptMissing = "Transcript not downloaded. Import one with `readlist transcript import` before summarizing."

// ChannelSource lists channel uploads.
type ChannelSource interface {
	ResolveChannelID(ctx context.Context, channelURL string) (string, error)
	FetchChannelVideos(ctx context.Context, channelID string, limit int) ([]youtube.RemoteVideo, error)
}

// MetadataSource fetches metadata for a single video.
type MetadataSource interface {
	FetchVideoMetadata(ctx context.Context, videoID string) (youtube.VideoMetadata, bool, error)
}

// TrackedStore is the locally tracked transcript store.
type TrackedStore interface {
	Get(videoID string) (tracker.TrackedVideo, bool)
	ForChannel(channelID, handle, title string) []tracker.TrackedVideo
	LoadTranscript(video tracker.TrackedVideo) (string, bool)
}

// VideoIngestor ingests single video and channel entries.
type VideoIngestor struct {
	cache    *contentcache.Store
	index    *contentindex.Index
	tracked  TrackedStore
	channels ChannelSource
	metadata MetadataSource
	logger   *slog.Logger
	settings settings
}

// NewVideoIngestor constructs a VideoIngestor. The default limit is thirty
// videos per channel.
func NewVideoIngestor(cache *contentcache.Store, index *contentindex.Index, tracked TrackedStore, channels ChannelSource, metadata MetadataSource, logger *slog.Logger, opts ...Option) *VideoIngestor {
	return &VideoIngestor{
		cache:    cache,
		index:    index,
		tracked:  tracked,
		channels: channels,
		metadata: metadata,
		logger:   logging.NewComponentLogger(logger, "ingest.video"),
		settings: newSettings(defaultChannelLimit, opts),
	}
}

// Ingest processes the video and channel entries among entries.
func (v *VideoIngestor) Ingest(ctx context.Context, entries []sourcelist.Entry, report *Report) error {
	pace := &pacer{s: &v.settings}
	for _, entry := range entries {
		if !entry.IsVideo() {
			continue
		}
		logger := v.logger.With(logging.String(logging.FieldSourceURL, entry.URL))

		var candidates []videoCandidate
		if entry.Kind == sourcelist.KindChannel {
			candidates = v.channelCandidates(ctx, entry, pace, report, logger)
		} else {
			candidates = v.singleCandidate(ctx, entry, pace, report, logger)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(candidates) == 0 {
			continue
		}
		for _, candidate := range candidates {
			if err := v.ingestVideo(ctx, entry, candidate, pace, report, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *VideoIngestor) singleCandidate(ctx context.Context, entry sourcelist.Entry, pace *pacer, report *Report, logger *slog.Logger) []videoCandidate {
	videoID := entry.VideoID()
	if videoID == "" {
		videoID = youtube.ExtractVideoID(entry.URL)
	}
	if videoID == "" {
		warnReason(logger, report, Warning{Source: entry.URL, Stage: StageResolve, Reason: "unable to extract video id"})
		return nil
	}
	if tracked, ok := v.tracked.Get(videoID); ok && tracked.Title != "" {
		candidate := fromTracked(tracked)
		if candidate.URL == "" {
			candidate.URL = youtube.WatchURL(videoID)
		}
		return []videoCandidate{candidate}
	}

	if err := pace.wait(ctx); err != nil {
		return nil
	}
	meta, ok, err := v.metadata.FetchVideoMetadata(ctx, videoID)
	if err != nil {
		if ctx.Err() == nil {
			warn(logger, report, Warning{Source: entry.URL, Item: videoID, Stage: StageMetadata, Reason: err.Error()}, err)
		}
		return nil
	}
	if !ok || meta.Title == "" {
		warnReason(logger, report, Warning{Source: entry.URL, Item: videoID, Stage: StageMetadata, Reason: "no metadata available"})
		return nil
	}
	return []videoCandidate{fromMetadata(meta)}
}

func (v *VideoIngestor) channelCandidates(ctx context.Context, entry sourcelist.Entry, pace *pacer, report *Report, logger *slog.Logger) []videoCandidate {
	channelID := youtube.ChannelIDFromURL(entry.URL)
	if channelID == "" {
		if err := pace.wait(ctx); err != nil {
			return nil
		}
		resolved, err := v.channels.ResolveChannelID(ctx, entry.URL)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			warn(logger, report, Warning{Source: entry.URL, Stage: StageResolve, Reason: err.Error()}, err)
		default:
			channelID = resolved
			logger.Info("resolved channel id", logging.String("channel_id", channelID))
		}
	}

	var local []videoCandidate
	for _, tracked := range v.tracked.ForChannel(channelID, youtube.HandleFromURL(entry.URL), entry.Title) {
		local = append(local, fromTracked(tracked))
	}

	var remote []videoCandidate
	if channelID != "" {
		if err := pace.wait(ctx); err != nil {
			return nil
		}
		videos, err := v.channels.FetchChannelVideos(ctx, channelID, v.settings.limit)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			warn(logger, report, Warning{Source: entry.URL, Item: channelID, Stage: StageChannel, Reason: err.Error()}, err)
		}
		for _, video := range videos {
			remote = append(remote, fromRemote(video))
		}
	}

	merged := mergeCandidates(local, remote, v.settings.limit)
	if len(merged) == 0 {
		warnReason(logger, report, Warning{Source: entry.URL, Stage: StageChannel, Reason: "no videos available"})
	}
	logger.Debug("channel candidates",
		logging.Int("local", len(local)),
		logging.Int("remote", len(remote)),
		logging.Int("merged", len(merged)))
	return merged
}

// ingestVideo returns an error only when ctx is done.
func (v *VideoIngestor) ingestVideo(ctx context.Context, entry sourcelist.Entry, c videoCandidate, pace *pacer, report *Report, logger *slog.Logger) error {
	now := v.settings.now()
	if c.VideoID == "" {
		c.VideoID = youtube.ExtractVideoID(c.URL)
	}

	if !isAbsoluteDate(c.PublishedAt) && c.VideoID != "" {
		if cached, ok := v.cache.LoadRawVideo(c.VideoID); ok && isAbsoluteDate(cached.PublishedAt) {
			c.PublishedAt = cached.PublishedAt
		}
	}
	if !isAbsoluteDate(c.PublishedAt) {
		if resolved, ok := ResolveRelativeDate(c.PublishedAt, now); ok {
			c.PublishedAt = resolved
		}
	}
	if !isAbsoluteDate(c.PublishedAt) && c.VideoID != "" && !c.fromMetadata {
		if err := pace.wait(ctx); err != nil {
			return err
		}
		meta, ok, err := v.metadata.FetchVideoMetadata(ctx, c.VideoID)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Debug("publish date lookup failed", logging.String("video_id", c.VideoID), logging.Error(err))
		}
		if ok && meta.PublishedAt != "" {
			c.PublishedAt = meta.PublishedAt
			if c.ChannelName == "" {
				c.ChannelName = meta.ChannelName
			}
			if c.ChannelID == "" {
				c.ChannelID = meta.ChannelID
			}
		}
	}

	transcript, hasTranscript := v.tracked.LoadTranscript(tracker.TrackedVideo{VideoID: c.VideoID, TranscriptFile: c.TranscriptFile})
	transcriptErr := ""
	if !hasTranscript {
		transcriptErr = transcriptMissing
	}

	contentID := c.VideoID
	canonicalURL := c.URL
	if c.VideoID != "" {
		canonicalURL = youtube.WatchURL(c.VideoID)
	} else {
		contentID = textutil.SHA1Hex(c.URL)
	}
	hash := videoHash(transcript, c, contentID)
	logger = logger.With(logging.String(logging.FieldContentID, contentID))

	written := false
	if !v.cache.RawIsCurrent(contentcache.NamespaceVideo, contentID, hash) {
		payload := contentcache.RawVideo{
			ContentHash:         hash,
			Title:               c.Title,
			ChannelName:         c.ChannelName,
			ChannelID:           c.ChannelID,
			PublishedAt:         c.PublishedAt,
			OriginalURL:         canonicalURL,
			Transcript:          transcript,
			TranscriptAvailable: hasTranscript,
			TranscriptError:     transcriptErr,
			Language:            c.Language,
			Categories:          []string{entry.Category},
			Tags:                entry.Tags,
		}
		if err := v.cache.SaveRawVideo(contentID, payload); err != nil {
			warn(logger, report, Warning{Source: entry.URL, Item: contentID, Stage: StageCache, Reason: err.Error()}, err)
			return nil
		}
		written = true
		logger.Info("video cached", logging.Bool("transcript", hasTranscript))
	}
	if !hasTranscript {
		logger.Debug("transcript unavailable", logging.String("title", c.Title))
	}

	upsert(v.index, contentindex.Record{
		ContentID:   contentID,
		SourceType:  contentindex.SourceTypeVideo,
		Origin:      string(entry.Kind),
		OriginalURL: canonicalURL,
		Title:       c.Title,
		PublishedAt: c.PublishedAt,
		Author:      c.ChannelName,
		Categories:  []string{entry.Category},
		Tags:        entry.Tags,
		RawPath:     v.cache.RawPath(contentcache.NamespaceVideo, contentID),
	}, now)
	report.Count(func(counts *Counts) {
		counts.VideoItems++
		if written {
			counts.RawWritten++
		} else {
			counts.RawReused++
		}
	})
	return nil
}

// videoHash hashes the transcript when there is one, otherwise title plus
// publish date, then the URL, then the content id.
func videoHash(transcript string, c videoCandidate, contentID string) string {
	if transcript != "" {
		return contentcache.Hash(transcript)
	}
	basis := c.Title + c.PublishedAt
	if basis == "" {
		basis = c.URL
	}
	if basis == "" {
		basis = contentID
	}
	return contentcache.Hash(basis)
}

func warnReason(logger *slog.Logger, report *Report, w Warning) {
	attrs := []logging.Attr{
		logging.String("stage", w.Stage),
		logging.String("reason", w.Reason),
		logging.String(logging.FieldImpact, "item skipped for this run"),
	}
	if w.Item != "" {
		attrs = append(attrs, logging.String("item", w.Item))
	}
	logging.WarnWithContext(logger, "ingest item skipped", "ingest_item_skipped", attrs...)
	report.Warn(w)
}
