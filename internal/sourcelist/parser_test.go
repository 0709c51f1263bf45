package sourcelist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
Intro text with https://ignored.example.com before any header.

# Youtube Videos
- [Finance] https://www.youtube.com/watch?v=dQw4w9WgXcQ

# Youtube Channels
- [Technology] AI Channel: https://www.youtube.com/@example | tags: ai, ml

# Blogs
- [Productivity] Writer Name: https://example.com/blog (tags: habits, focus)
- A line without any link

# Machine Learning
- Karpathy: https://www.youtube.com/@AndrejKarpathy
- https://youtu.be/abcdefghijk
- Distill: https://distill.pub. | author: Chris Olah | category: Research
`

func TestParseReaderExtractsEntries(t *testing.T) {
	entries, err := ParseReader(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d: %+v", len(entries), entries)
	}

	video := entries[0]
	if video.Kind != KindVideo {
		t.Fatalf("unexpected kind: %q", video.Kind)
	}
	if video.Category != "Finance" {
		t.Fatalf("unexpected category: got %q want %q", video.Category, "Finance")
	}
	if video.VideoID() != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected video id: %q", video.VideoID())
	}
	if video.Title != "" {
		t.Fatalf("expected empty title, got %q", video.Title)
	}

	channel := entries[1]
	if channel.Kind != KindChannel || channel.Category != "Technology" {
		t.Fatalf("unexpected channel entry: %+v", channel)
	}
	if channel.Title != "AI Channel" {
		t.Fatalf("unexpected channel title: %q", channel.Title)
	}
	if strings.Join(channel.Tags, ",") != "ai,ml" {
		t.Fatalf("unexpected channel tags: %v", channel.Tags)
	}

	blog := entries[2]
	if blog.Kind != KindBlog || blog.Category != "Productivity" {
		t.Fatalf("unexpected blog entry: %+v", blog)
	}
	if strings.Join(blog.Tags, ",") != "habits,focus" {
		t.Fatalf("unexpected blog tags: %v", blog.Tags)
	}
	if blog.URL != "https://example.com/blog" {
		t.Fatalf("unexpected blog url: %q", blog.URL)
	}
}

func TestParseReaderInfersKindInCustomSections(t *testing.T) {
	entries, err := ParseReader(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	custom := entries[3:]

	if custom[0].Kind != KindChannel || custom[0].Category != "Machine Learning" {
		t.Fatalf("unexpected custom channel: %+v", custom[0])
	}
	if custom[1].Kind != KindVideo || custom[1].VideoID() != "abcdefghijk" {
		t.Fatalf("unexpected custom video: %+v", custom[1])
	}
	blog := custom[2]
	if blog.Kind != KindBlog {
		t.Fatalf("unexpected kind: %q", blog.Kind)
	}
	if blog.URL != "https://distill.pub" {
		t.Fatalf("expected trailing punctuation stripped, got %q", blog.URL)
	}
	if blog.Category != "Research" {
		t.Fatalf("expected category hint override, got %q", blog.Category)
	}
	if blog.Author() != "Chris Olah" {
		t.Fatalf("unexpected author: %q", blog.Author())
	}
}

func TestParseVideoWithoutIDKeepsEmptyHint(t *testing.T) {
	entries, err := ParseReader(strings.NewReader("# Youtube Videos\nhttps://www.youtube.com/watch?list=abc\n"))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if id, ok := entries[0].Metadata[MetaVideoID]; !ok || id != "" {
		t.Fatalf("expected empty video_id hint, got %q (present=%v)", id, ok)
	}
}

func TestParseDeduplicatesTags(t *testing.T) {
	entries, err := ParseReader(strings.NewReader("# Blogs\n- https://a.example | tags: go; go, [rust]\n"))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	if got := strings.Join(entries[0].Tags, ","); got != "go,rust" {
		t.Fatalf("unexpected tags: got %q want %q", got, "go,rust")
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.md"))
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readinglist.md")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"video": KindVideo, "Channel": KindChannel, "blog": KindBlog, "youtube_video": KindVideo} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("podcast"); !errors.Is(err, ErrUnsupportedSourceType) {
		t.Fatalf("expected ErrUnsupportedSourceType, got %v", err)
	}
}
