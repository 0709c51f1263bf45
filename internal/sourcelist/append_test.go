package sourcelist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readinglist.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readList(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAppendInsertsAtEndOfSection(t *testing.T) {
	path := writeList(t, "# Blogs\n- https://one.example\n\n# Youtube Channels\nhttps://www.youtube.com/@a\n")

	if err := Append(path, "https://two.example", KindBlog); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	want := "# Blogs\n- https://one.example\n- https://two.example\n\n# Youtube Channels\nhttps://www.youtube.com/@a\n"
	if got := readList(t, path); got != want {
		t.Fatalf("unexpected file:\n got %q\nwant %q", got, want)
	}
}

func TestAppendCreatesMissingSection(t *testing.T) {
	path := writeList(t, "# Blogs\n- https://one.example\n")

	if err := Append(path, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindVideo); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	want := "# Blogs\n- https://one.example\n\n# Youtube Videos\n\nhttps://www.youtube.com/watch?v=dQw4w9WgXcQ\n"
	if got := readList(t, path); got != want {
		t.Fatalf("unexpected file:\n got %q\nwant %q", got, want)
	}

	entries, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 || entries[1].Kind != KindVideo {
		t.Fatalf("appended entry not parsed back: %+v", entries)
	}
}

func TestAppendRejectsDuplicatesAndBadURLs(t *testing.T) {
	original := "# Blogs\n- [Tech] Site: https://one.example/feed\n"
	path := writeList(t, original)

	if err := Append(path, "https://one.example/feed", KindBlog); !errors.Is(err, ErrDuplicateSource) {
		t.Fatalf("expected ErrDuplicateSource, got %v", err)
	}
	if err := Append(path, "ftp://files.example", KindBlog); err == nil {
		t.Fatal("expected error for non-http url")
	}
	if err := Append(path, "https://new.example", Kind("podcast")); !errors.Is(err, ErrUnsupportedSourceType) {
		t.Fatalf("expected ErrUnsupportedSourceType, got %v", err)
	}
	if got := readList(t, path); got != original {
		t.Fatalf("file changed after rejected appends: %q", got)
	}
}
