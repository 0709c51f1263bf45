package tracker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"readlist/internal/fileutil"
	"readlist/internal/language"
	"readlist/internal/logging"
	"readlist/internal/textutil"
)

const (
	metadataFile   = "transcript_metadata.json"
	transcriptsDir = "transcripts"
)

var trailingDigits = regexp.MustCompile(`\d+$`)

// TrackedVideo is one entry of the transcript metadata file.
type TrackedVideo struct {
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	ChannelName     string  `json:"channel_name"`
	ChannelID       string  `json:"channel_id"`
	URL             string  `json:"url"`
	PublishedDate   string  `json:"published_date"`
	DownloadDate    string  `json:"download_date"`
	DurationSeconds float64 `json:"duration_seconds"`
	TextLength      int     `json:"text_length"`
	Language        string  `json:"language"`
	IsGenerated     bool    `json:"is_generated"`
	TranscriptFile  string  `json:"transcript_file"`
}

// Stats summarises the tracked dataset.
type Stats struct {
	TotalVideos     int
	TotalChannels   int
	TotalTextLength int
	TotalDuration   float64
	Languages       map[string]int
	Channels        map[string]int
}

// Store is the in-memory view of the tracked transcript directory.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	videos map[string]TrackedVideo
}

// Open loads the metadata file under dir. A missing file yields an empty
// store; an unreadable one yields an empty store and a warning.
func Open(dir string, logger *slog.Logger) *Store {
	s := &Store{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "tracker"),
		videos: make(map[string]TrackedVideo),
	}
	var videos map[string]TrackedVideo
	found, err := fileutil.ReadJSON(s.MetadataPath(), &videos)
	if err != nil {
		logging.WarnWithContext(s.logger, "transcript metadata unreadable", "tracker_load_failed",
			logging.String("path", s.MetadataPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "tracked transcripts ignored for this run"),
			logging.String(logging.FieldErrorHint, "fix or remove the metadata file"))
		return s
	}
	if found {
		for id, video := range videos {
			if video.VideoID == "" {
				video.VideoID = id
			}
			s.videos[id] = video
		}
	}
	return s
}

// Dir returns the tracker root directory.
func (s *Store) Dir() string { return s.dir }

// MetadataPath returns the path of transcript_metadata.json.
func (s *Store) MetadataPath() string {
	return filepath.Join(s.dir, metadataFile)
}

// TranscriptPath returns the conventional transcript location for videoID.
func (s *Store) TranscriptPath(videoID string) string {
	return filepath.Join(s.dir, transcriptsDir, videoID+".txt")
}

// Len returns the number of tracked videos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Get returns the tracked video with videoID.
func (s *Store) Get(videoID string) (TrackedVideo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[videoID]
	return video, ok
}

// All returns the tracked videos sorted by id.
func (s *Store) All() []TrackedVideo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrackedVideo, 0, len(s.videos))
	for _, video := range s.videos {
		out = append(out, video)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out
}

// ForChannel returns tracked videos belonging to a channel, newest first.
// A video matches on an equal channel id, or when the slug of its channel
// name contains (or is contained in) the handle slug, contains the handle
// slug without trailing digits, or contains the title slug.
func (s *Store) ForChannel(channelID, handle, title string) []TrackedVideo {
	handleSlug := textutil.Slug(handle)
	handleBase := trailingDigits.ReplaceAllString(handleSlug, "")
	titleSlug := textutil.Slug(title)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TrackedVideo
	for _, video := range s.videos {
		if channelMatches(video, channelID, handleSlug, handleBase, titleSlug) {
			out = append(out, video)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedDate != out[j].PublishedDate {
			return out[i].PublishedDate > out[j].PublishedDate
		}
		return out[i].VideoID < out[j].VideoID
	})
	return out
}

func channelMatches(video TrackedVideo, channelID, handleSlug, handleBase, titleSlug string) bool {
	if channelID != "" && video.ChannelID == channelID {
		return true
	}
	name := textutil.Slug(video.ChannelName)
	if name == "" {
		return false
	}
	if handleSlug != "" {
		if containsEither(name, handleSlug) || (handleBase != "" && strings.Contains(name, handleBase)) {
			return true
		}
	}
	return titleSlug != "" && strings.Contains(name, titleSlug)
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// LoadTranscript reads the transcript of video from its recorded file or
// from the conventional transcripts/<id>.txt location.
func (s *Store) LoadTranscript(video TrackedVideo) (string, bool) {
	paths := make([]string, 0, 2)
	if video.TranscriptFile != "" {
		paths = append(paths, video.TranscriptFile)
	}
	if video.VideoID != "" {
		paths = append(paths, s.TranscriptPath(video.VideoID))
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("transcript unreadable", logging.String("path", path), logging.Error(err))
			}
			continue
		}
		return string(data), true
	}
	return "", false
}

// Put writes transcript to transcripts/<id>.txt and records video with the
// file location and text length filled in. Call Save to persist metadata.
func (s *Store) Put(video TrackedVideo, transcript string) (TrackedVideo, error) {
	if video.VideoID == "" {
		return TrackedVideo{}, errors.New("tracked video requires an id")
	}
	path := s.TranscriptPath(video.VideoID)
	if err := fileutil.WriteFileAtomic(path, []byte(transcript), 0o644); err != nil {
		return TrackedVideo{}, fmt.Errorf("write transcript: %w", err)
	}
	video.TranscriptFile = path
	video.TextLength = len([]rune(transcript))
	video.Language = language.Normalize(video.Language)

	s.mu.Lock()
	s.videos[video.VideoID] = video
	s.mu.Unlock()
	return video, nil
}

// Save rewrites the metadata file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	snapshot := make(map[string]TrackedVideo, len(s.videos))
	for id, video := range s.videos {
		snapshot[id] = video
	}
	s.mu.RUnlock()
	if err := fileutil.WriteJSONAtomic(s.MetadataPath(), snapshot); err != nil {
		return fmt.Errorf("save transcript metadata: %w", err)
	}
	return nil
}

// Stats returns totals over the tracked dataset.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{
		Languages: make(map[string]int),
		Channels:  make(map[string]int),
	}
	for _, video := range s.videos {
		stats.TotalVideos++
		stats.TotalTextLength += video.TextLength
		stats.TotalDuration += video.DurationSeconds
		lang := language.Normalize(video.Language)
		stats.Languages[lang]++
		stats.Channels[video.ChannelName]++
	}
	stats.TotalChannels = len(stats.Channels)
	return stats
}
