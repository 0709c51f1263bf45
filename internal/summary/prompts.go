package summary

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"readlist/internal/contentindex"
	"readlist/internal/fileutil"
)

// Prompt keys in the prompts file.
const (
	KeyVideo = "youtube_video"
	KeyBlog  = "blog_post"
)

//go:embed default_prompts.yaml
var defaultPromptsYAML []byte

// Template is one prompt pair and the version that stamps its summaries.
type Template struct {
	System        string `yaml:"system" json:"system"`
	User          string `yaml:"user" json:"user"`
	PromptVersion int    `yaml:"prompt_version" json:"prompt_version"`
}

// Version returns the prompt version, defaulting to 1.
func (t Template) Version() int {
	if t.PromptVersion <= 0 {
		return 1
	}
	return t.PromptVersion
}

// Prompts maps prompt keys to templates.
type Prompts map[string]Template

// Keys returns the prompt keys in sorted order.
func (p Prompts) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeyFor maps an index source type to its prompt key.
func KeyFor(sourceType string) (string, error) {
	switch sourceType {
	case contentindex.SourceTypeVideo:
		return KeyVideo, nil
	case contentindex.SourceTypeBlog:
		return KeyBlog, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSourceType, sourceType)
	}
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	prompts, err := parsePrompts(defaultPromptsYAML)
	if err != nil {
		panic(fmt.Sprintf("summary: built-in prompts are invalid: %v", err))
	}
	return prompts
}

// WriteDefaultPrompts writes the built-in prompts YAML to path unless a file
// already exists there. It reports whether a file was written.
func WriteDefaultPrompts(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat prompts file: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, defaultPromptsYAML, 0o644); err != nil {
		return false, fmt.Errorf("write prompts file: %w", err)
	}
	return true, nil
}

// LoadPrompts reads the YAML prompts file. A missing or unreadable file is a
// *ConfigError.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{
				Reason: fmt.Sprintf("prompt file not found: %s", path),
				Hint:   "run `readlist config init` to write the default prompts",
			}
		}
		return nil, &ConfigError{Reason: "read prompt file", Err: err}
	}
	prompts, err := parsePrompts(data)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse prompt file %s", filepath.Base(path)), Err: err}
	}
	return prompts, nil
}

func parsePrompts(data []byte) (Prompts, error) {
	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, err
	}
	if prompts == nil {
		prompts = Prompts{}
	}
	for key, tmpl := range prompts {
		if strings.TrimSpace(tmpl.User) == "" {
			return nil, fmt.Errorf("prompt %q has no user template", key)
		}
		tmpl.PromptVersion = tmpl.Version()
		prompts[key] = tmpl
	}
	return prompts, nil
}

// Override is a partial template stored in the overrides file.
type Override struct {
	System        *string `json:"system,omitempty"`
	User          *string `json:"user,omitempty"`
	PromptVersion *int    `json:"prompt_version,omitempty"`
}

// LoadOverrides reads the overrides file. A missing file yields an empty map.
func LoadOverrides(path string) (map[string]Override, error) {
	overrides := map[string]Override{}
	if _, err := fileutil.ReadJSON(path, &overrides); err != nil {
		return map[string]Override{}, err
	}
	return overrides, nil
}

// ApplyOverrides merges the overrides file at path into p. Keys absent from
// p are ignored.
func (p Prompts) ApplyOverrides(path string) error {
	overrides, err := LoadOverrides(path)
	if err != nil {
		return err
	}
	p.merge(overrides)
	return nil
}

func (p Prompts) merge(overrides map[string]Override) {
	for key, o := range overrides {
		tmpl, ok := p[key]
		if !ok {
			continue
		}
		if o.System != nil {
			tmpl.System = *o.System
		}
		if o.User != nil {
			tmpl.User = *o.User
		}
		if o.PromptVersion != nil {
			tmpl.PromptVersion = *o.PromptVersion
		}
		tmpl.PromptVersion = tmpl.Version()
		p[key] = tmpl
	}
}

// SetOverride records new system and/or user text for key in the overrides
// file and bumps the key's version past the active one in p. Empty strings
// leave that part unchanged. The updated template is returned and applied
// to p.
func (p Prompts) SetOverride(path, key, system, user string) (Template, error) {
	current, ok := p[key]
	if !ok {
		return Template{}, fmt.Errorf("unknown prompt key %q (known: %s)", key, strings.Join(p.Keys(), ", "))
	}
	if system == "" && user == "" {
		return Template{}, errors.New("nothing to change: provide a system or user prompt")
	}
	if user != "" {
		if _, err := Render(user, placeholderProbe(key)); err != nil {
			return Template{}, fmt.Errorf("invalid user prompt: %w", err)
		}
	}

	overrides, err := LoadOverrides(path)
	if err != nil {
		return Template{}, err
	}
	o := overrides[key]
	if system != "" {
		o.System = &system
	}
	if user != "" {
		o.User = &user
	}
	next := current.Version() + 1
	o.PromptVersion = &next
	overrides[key] = o

	if err := fileutil.WriteJSONAtomic(path, overrides); err != nil {
		return Template{}, fmt.Errorf("save prompt overrides: %w", err)
	}
	p.merge(map[string]Override{key: o})
	return p[key], nil
}

func placeholderProbe(key string) map[string]string {
	names := blogVariables
	if key == KeyVideo {
		names = videoVariables
	}
	vars := make(map[string]string, len(names))
	for _, n := range names {
		vars[n] = ""
	}
	return vars
}

var (
	videoVariables = []string{"title", "channel", "published_at", "transcript", "tags"}
	blogVariables  = []string{"title", "author", "published_at", "url", "content", "tags"}
)
