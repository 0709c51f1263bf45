package ingest

import (
	"sort"

	"readlist/internal/textutil"
	"readlist/internal/tracker"
	"readlist/internal/youtube"
)

// videoCandidate is a video gathered from any provenance path.
type videoCandidate struct {
	VideoID        string
	Title          string
	PublishedAt    string
	ChannelName    string
	ChannelID      string
	URL            string
	Language       string
	TranscriptFile string
	DiscoveryIndex int
	// fromMetadata marks candidates built from a watch-page fetch, which
	// makes a second metadata lookup pointless.
	fromMetadata bool
}

func fromTracked(v tracker.TrackedVideo) videoCandidate {
	return videoCandidate{
		VideoID:        v.VideoID,
		Title:          v.Title,
		PublishedAt:    v.PublishedDate,
		ChannelName:    v.ChannelName,
		ChannelID:      v.ChannelID,
		URL:            v.URL,
		Language:       v.Language,
		TranscriptFile: v.TranscriptFile,
	}
}

func fromRemote(v youtube.RemoteVideo) videoCandidate {
	return videoCandidate{
		VideoID:        v.VideoID,
		Title:          v.Title,
		PublishedAt:    v.PublishedAt,
		ChannelName:    v.ChannelName,
		ChannelID:      v.ChannelID,
		URL:            v.URL,
		DiscoveryIndex: v.DiscoveryIndex,
	}
}

func fromMetadata(m youtube.VideoMetadata) videoCandidate {
	return videoCandidate{
		VideoID:      m.VideoID,
		Title:        m.Title,
		PublishedAt:  m.PublishedAt,
		ChannelName:  m.ChannelName,
		ChannelID:    m.ChannelID,
		URL:          m.URL,
		fromMetadata: true,
	}
}

// mergeCandidates combines local and remote videos. Local entries win by
// video id; a remote entry is added only when its id is new. Dated entries
// come first, newest first; undated ones follow in descending discovery
// order, which is a best-effort recency signal rather than a real date.
func mergeCandidates(local, remote []videoCandidate, limit int) []videoCandidate {
	seen := make(map[string]struct{}, len(local)+len(remote))
	merged := make([]videoCandidate, 0, len(local)+len(remote))
	for _, v := range local {
		if v.VideoID == "" {
			continue
		}
		if _, dup := seen[v.VideoID]; dup {
			continue
		}
		seen[v.VideoID] = struct{}{}
		merged = append(merged, v)
	}
	for _, v := range remote {
		if v.VideoID == "" {
			continue
		}
		if _, dup := seen[v.VideoID]; dup {
			continue
		}
		seen[v.VideoID] = struct{}{}
		merged = append(merged, v)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, iok := textutil.ParseTimestamp(merged[i].PublishedAt)
		tj, jok := textutil.ParseTimestamp(merged[j].PublishedAt)
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok != jok:
			return iok
		default:
			return merged[i].DiscoveryIndex > merged[j].DiscoveryIndex
		}
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
