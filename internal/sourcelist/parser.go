package sourcelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"readlist/internal/textutil"
)

var (
	urlPattern            = regexp.MustCompile(`(?i)https?://[^\s)]+`)
	categoryPrefixPattern = regexp.MustCompile(`^-?\s*\[([^\]]+)\]\s*:?`)
	hintPattern           = regexp.MustCompile(`(?i)(tags?|category|author)\s*:\s*([^|]+)`)
	tagSplitPattern       = regexp.MustCompile(`[,;]\s*`)
	videoIDPattern        = regexp.MustCompile(`(?:v=|be/|embed/)([A-Za-z0-9_-]{11})`)
)

type sectionDefaults struct {
	kind     Kind
	category string
}

var knownSections = map[string]sectionDefaults{
	"youtube videos":   {kind: KindVideo, category: "Individual YouTube"},
	"youtube channels": {kind: KindChannel, category: "YouTube Channels"},
	"blogs":            {kind: KindBlog, category: "Blogs"},
}

const fallbackCategory = "General"

// Parse reads the source list at path.
func Parse(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingSource, path, err)
	}
	defer file.Close()
	return ParseReader(file)
}

// ParseReader parses source list markdown from r.
func ParseReader(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		section string
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			section = strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "#")))
			continue
		}
		if section == "" {
			continue
		}
		if entry, ok := parseLine(line, section); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}
	return entries, nil
}

func parseLine(line, section string) (Entry, bool) {
	loc := urlPattern.FindStringIndex(line)
	if loc == nil {
		return Entry{}, false
	}
	url := strings.TrimRight(line[loc[0]:loc[1]], ".,)")
	pre := strings.TrimSpace(line[:loc[0]])
	post := strings.TrimSpace(line[loc[1]:])

	category := ""
	if m := categoryPrefixPattern.FindStringSubmatch(pre); m != nil {
		category = strings.TrimSpace(m[1])
		pre = strings.TrimSpace(pre[len(m[0]):])
	}
	if category == "" {
		if defaults, ok := knownSections[section]; ok {
			category = defaults.category
		} else {
			category = textutil.Title(section)
		}
	}
	title := strings.TrimSpace(strings.TrimRight(pre, ":-"))

	metadata := make(map[string]string)
	var tags []string
	for _, m := range hintPattern.FindAllStringSubmatch(post, -1) {
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "tag", "tags":
			tags = append(tags, splitTags(value)...)
		case "category":
			if value != "" {
				category = value
			}
		case "author":
			if value != "" {
				metadata[MetaAuthor] = value
			}
		}
	}

	kind := detectKind(section, url)
	if kind == KindVideo {
		metadata[MetaVideoID] = extractVideoID(url)
	}
	if category == "" {
		category = fallbackCategory
	}

	return Entry{
		Kind:     kind,
		URL:      url,
		Category: category,
		Title:    title,
		Tags:     textutil.DedupeStrings(tags),
		Metadata: metadata,
	}, true
}

func splitTags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, part := range tagSplitPattern.Split(value, -1) {
		token := strings.Trim(strings.TrimSpace(part), "()[]{} ")
		if token != "" {
			tags = append(tags, token)
		}
	}
	return tags
}

func detectKind(section, url string) Kind {
	if defaults, ok := knownSections[section]; ok {
		return defaults.kind
	}
	if strings.Contains(url, "youtube") || strings.Contains(url, "youtu.be") {
		if strings.Contains(url, "/watch") || strings.Contains(url, "youtu.be") {
			return KindVideo
		}
		return KindChannel
	}
	return KindBlog
}

func extractVideoID(url string) string {
	if m := videoIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}
