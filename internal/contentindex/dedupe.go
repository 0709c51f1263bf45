package contentindex

import (
	"sort"
	"strings"
)

// DedupeByURL keeps one record per original URL and returns the removed ids
// in sorted order. The survivor is chosen by preferring a parseable publish
// time, then the later publish time, then the later last update, then the
// smaller content id.
func (i *Index) DedupeByURL() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	groups := make(map[string][]Record)
	for _, record := range i.records {
		url := strings.TrimSpace(record.OriginalURL)
		if url == "" {
			continue
		}
		groups[url] = append(groups[url], record)
	}

	var removed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(a, b int) bool {
			return survivorLess(group[a], group[b])
		})
		for _, loser := range group[1:] {
			delete(i.records, loser.ContentID)
			removed = append(removed, loser.ContentID)
		}
	}
	sort.Strings(removed)
	return removed
}

// survivorLess orders a before b when a is the better dedup survivor.
func survivorLess(a, b Record) bool {
	aTime, aOK := a.Published()
	bTime, bOK := b.Published()
	if aOK != bOK {
		return aOK
	}
	if aOK && !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	if !a.LastUpdated.Equal(b.LastUpdated) {
		return a.LastUpdated.After(b.LastUpdated)
	}
	return a.ContentID < b.ContentID
}
