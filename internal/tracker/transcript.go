package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"readlist/internal/logging"
	"readlist/internal/textutil"
	"readlist/internal/youtube"
)

// ErrInvalidVideo reports an import input without a recognisable video id.
var ErrInvalidVideo = errors.New("no video id in input")

// TranscriptResult is the outcome of one transcript fetch.
type TranscriptResult struct {
	Success         bool
	Transcript      string
	Language        string
	IsGenerated     bool
	DurationSeconds float64
	Error           string
}

// TranscriptFetcher obtains the transcript of a video.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoURL string) (TranscriptResult, error)
}

// MetadataLookup resolves title and channel name for a video URL.
type MetadataLookup interface {
	FetchOEmbed(ctx context.Context, videoURL string) (youtube.OEmbed, error)
}

// FileSource serves a transcript from a local text file.
type FileSource struct {
	Path     string
	Language string
}

// FetchTranscript reads the file; the video URL is ignored.
func (f FileSource) FetchTranscript(_ context.Context, _ string) (TranscriptResult, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return TranscriptResult{}, fmt.Errorf("read transcript file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return TranscriptResult{Error: "transcript file is empty"}, nil
	}
	return TranscriptResult{
		Success:    true,
		Transcript: text,
		Language:   f.Language,
	}, nil
}

// Import registers the transcript of one video given its URL or bare id.
// Title and channel come from lookup when available; the video id is used as
// the title otherwise. An existing entry for the same video is replaced.
func (s *Store) Import(ctx context.Context, input string, fetcher TranscriptFetcher, lookup MetadataLookup, now time.Time) (TrackedVideo, error) {
	videoID := youtube.ExtractVideoID(input)
	if videoID == "" {
		return TrackedVideo{}, fmt.Errorf("%w: %q", ErrInvalidVideo, input)
	}
	videoURL := youtube.WatchURL(videoID)
	logger := s.logger.With(logging.String(logging.FieldContentID, videoID))

	video := TrackedVideo{VideoID: videoID, Title: videoID, URL: videoURL}
	if existing, ok := s.Get(videoID); ok {
		video.Title = existing.Title
		video.ChannelName = existing.ChannelName
		video.ChannelID = existing.ChannelID
		video.PublishedDate = existing.PublishedDate
	}
	if lookup != nil {
		embed, err := lookup.FetchOEmbed(ctx, videoURL)
		if err != nil {
			logging.WarnWithContext(logger, "video metadata lookup failed", "oembed_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video id used as title"))
		} else {
			if title := textutil.PlainText(embed.Title); title != "" {
				video.Title = title
			}
			if author := textutil.PlainText(embed.AuthorName); author != "" {
				video.ChannelName = author
			}
		}
	}

	result, err := fetcher.FetchTranscript(ctx, videoURL)
	if err != nil {
		return TrackedVideo{}, fmt.Errorf("fetch transcript: %w", err)
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "no transcript returned"
		}
		return TrackedVideo{}, fmt.Errorf("transcript unavailable for %s: %s", videoID, reason)
	}

	video.DownloadDate = textutil.FormatTimestamp(now)
	video.DurationSeconds = result.DurationSeconds
	video.Language = result.Language
	video.IsGenerated = result.IsGenerated
	stored, err := s.Put(video, result.Transcript)
	if err != nil {
		return TrackedVideo{}, err
	}
	if err := s.Save(); err != nil {
		return TrackedVideo{}, err
	}
	logger.Info("transcript imported",
		logging.String("title", stored.Title),
		logging.Int("chars", stored.TextLength))
	return stored, nil
}
