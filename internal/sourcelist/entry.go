package sourcelist

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies what a source list entry points at.
type Kind string

const (
	KindVideo   Kind = "youtube_video"
	KindChannel Kind = "youtube_channel"
	KindBlog    Kind = "blog"
)

// Metadata keys populated by the parser.
const (
	MetaVideoID = "video_id"
	MetaAuthor  = "author"
)

var (
	// ErrMissingSource indicates the source list file could not be read.
	ErrMissingSource = errors.New("source list not found")
	// ErrDuplicateSource indicates Append was asked to add a URL already present.
	ErrDuplicateSource = errors.New("url already exists in source list")
	// ErrUnsupportedSourceType indicates an unknown entry kind.
	ErrUnsupportedSourceType = errors.New("unsupported source type")
)

// Entry is one parsed source list line.
type Entry struct {
	Kind     Kind
	URL      string
	Category string
	Title    string
	Tags     []string
	Metadata map[string]string
}

// VideoID returns the video id hint for video entries.
func (e Entry) VideoID() string {
	return e.Metadata[MetaVideoID]
}

// Author returns the author hint, if any.
func (e Entry) Author() string {
	return e.Metadata[MetaAuthor]
}

// IsVideo reports whether the entry is handled by the video ingestor.
func (e Entry) IsVideo() bool {
	return e.Kind == KindVideo || e.Kind == KindChannel
}

// ParseKind maps CLI-friendly names onto entry kinds.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video", "youtube_video":
		return KindVideo, nil
	case "channel", "youtube_channel":
		return KindChannel, nil
	case "blog":
		return KindBlog, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSourceType, value)
}
