package summary

import (
	"sort"
	"strings"

	"readlist/internal/fileutil"
)

// UserTags maps content ids to user-assigned tags.
type UserTags map[string][]string

// LoadUserTags reads the user tags file. A missing file yields an empty set.
func LoadUserTags(path string) (UserTags, error) {
	tags := UserTags{}
	if _, err := fileutil.ReadJSON(path, &tags); err != nil {
		return UserTags{}, err
	}
	return tags, nil
}

// Save writes the tags atomically.
func (u UserTags) Save(path string) error {
	return fileutil.WriteJSONAtomic(path, u)
}

// Set replaces the tags for id. Blank tags are dropped and duplicates
// collapse; an empty result removes the entry.
func (u UserTags) Set(id string, tags []string) {
	cleaned := dedupe(tags)
	if len(cleaned) == 0 {
		delete(u, id)
		return
	}
	u[id] = cleaned
}

// IDs returns the tagged content ids in sorted order.
func (u UserTags) IDs() []string {
	ids := make([]string, 0, len(u))
	for id := range u {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MergeTags joins the deduplicated union of base and user tags with ", ",
// or returns "None" when both are empty.
func MergeTags(base, user []string) string {
	merged := dedupe(append(append([]string{}, base...), user...))
	if len(merged) == 0 {
		return "None"
	}
	return strings.Join(merged, ", ")
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
