package sourcelist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"readlist/internal/fileutil"
)

type sectionFormat struct {
	header string
	line   string
}

var appendFormats = map[Kind]sectionFormat{
	KindVideo:   {header: "# Youtube Videos", line: "%s"},
	KindChannel: {header: "# Youtube Channels", line: "%s"},
	KindBlog:    {header: "# Blogs", line: "- %s"},
}

// Append registers url under the section for kind. The entry goes after the
// last non-blank line of the section; a missing section is created at the end
// of the file.
func Append(path, url string, kind Kind) error {
	format, ok := appendFormats[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedSourceType, kind)
	}
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http") {
		return fmt.Errorf("url must start with http or https: %q", url)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read source list: %w", err)
	}
	var lines []string
	if text := strings.TrimRight(string(data), "\n"); text != "" {
		lines = strings.Split(text, "\n")
	}
	for _, line := range lines {
		if strings.Contains(line, url) {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, url)
		}
	}

	entry := fmt.Sprintf(format.line, url)
	headerIndex := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == format.header {
			headerIndex = i
			break
		}
	}

	if headerIndex < 0 {
		lines = append(lines, "", format.header, "", entry)
	} else {
		end := headerIndex + 1
		for end < len(lines) && !strings.HasPrefix(lines[end], "# ") {
			end++
		}
		insert := end
		for insert > headerIndex+1 && strings.TrimSpace(lines[insert-1]) == "" {
			insert--
		}
		lines = append(lines[:insert], append([]string{entry}, lines[insert:]...)...)
	}

	return fileutil.WriteFileAtomic(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
