package youtube_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"readlist/internal/logging"
	"readlist/internal/services"
	"readlist/internal/services/httpfetch"
	"readlist/internal/youtube"
)

const channelID = "UCabcdefghijklmnopqrstuv"

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
 <title>Test Channel</title>
 <author><name>Test Channel</name></author>
 <entry>
  <id>yt:video:AAAAAAAAAA1</id>
  <yt:videoId>AAAAAAAAAA1</yt:videoId>
  <title>Newest Upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=AAAAAAAAAA1"/>
  <author><name>Test Channel</name></author>
  <published>2024-05-02T12:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:AAAAAAAAAA2</id>
  <yt:videoId>AAAAAAAAAA2</yt:videoId>
  <title>Older Upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=AAAAAAAAAA2"/>
  <author><name>Test Channel</name></author>
  <published>2024-05-01T12:00:00+00:00</published>
 </entry>
</feed>`

const channelPage = `<html><body><script>var ytInitialData = {"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[
 {"tabRenderer":{"selected":false}},
 {"tabRenderer":{"selected":true,"content":{"richGridRenderer":{"contents":[
  {"richItemRenderer":{"content":{"videoRenderer":{"videoId":"vid00000001","title":{"runs":[{"text":"Video One"}]},"ownerText":{"runs":[{"text":"Channel"}]},"publishedTimeText":{"simpleText":"1 day ago"}}}}},
  {"continuationItemRenderer":{}},
  {"richItemRenderer":{"content":{"videoRenderer":{"videoId":"vid00000002","title":{"simpleText":"Video Two"},"ownerText":{"runs":[{"text":"Channel"}]},"publishedTimeText":{"simpleText":"2 days ago"}}}}}
 ]}}}}]}}};</script></body></html>`

const watchPage = `<html><head>
<title>Fallback Title - YouTube</title>
<meta name="title" content="A Great Video">
<meta itemprop="datePublished" content="2024-02-03">
<span itemprop="author"><link itemprop="name" content="Great Channel"></span>
</head><body><script>{"channelId":"UCzzzzzzzzzzzzzzzzzzzzzz"}</script></body></html>`

type fixture struct {
	feedStatus int

	mu       sync.Mutex
	requests []string
}

func (f *fixture) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, name)
}

func (f *fixture) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newClient(t *testing.T, f *fixture) *youtube.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/videos.xml", func(w http.ResponseWriter, r *http.Request) {
		f.record("feed")
		if f.feedStatus != 0 {
			w.WriteHeader(f.feedStatus)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(channelFeed))
	})
	mux.HandleFunc("/channel/"+channelID+"/videos", func(w http.ResponseWriter, r *http.Request) {
		f.record("page")
		_, _ = w.Write([]byte(channelPage))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") == "missing0000" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(watchPage))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			http.Error(w, "bad format", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"title":"Embedded Title","author_name":"Embed Channel","author_url":"https://www.youtube.com/@embed"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return youtube.NewClient(httpfetch.New("test", time.Second), logging.NewNop(), youtube.WithBaseURL(server.URL))
}

func TestFetchChannelVideosFromFeed(t *testing.T) {
	f := &fixture{}
	videos, err := newClient(t, f).FetchChannelVideos(context.Background(), channelID, 30)
	if err != nil {
		t.Fatalf("FetchChannelVideos returned error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	first := videos[0]
	if first.VideoID != "AAAAAAAAAA1" || first.Title != "Newest Upload" {
		t.Fatalf("unexpected first video: %+v", first)
	}
	if first.PublishedAt != "2024-05-02T12:00:00Z" {
		t.Fatalf("unexpected published_at: %q", first.PublishedAt)
	}
	if first.ChannelName != "Test Channel" || first.ChannelID != channelID {
		t.Fatalf("unexpected channel fields: %+v", first)
	}
	if first.URL != "https://www.youtube.com/watch?v=AAAAAAAAAA1" {
		t.Fatalf("unexpected url: %q", first.URL)
	}
	if seen := f.seen(); len(seen) != 1 || seen[0] != "feed" {
		t.Fatalf("expected only the feed to be requested, got %v", seen)
	}
}

func TestFetchChannelVideosRespectsLimit(t *testing.T) {
	videos, err := newClient(t, &fixture{}).FetchChannelVideos(context.Background(), channelID, 1)
	if err != nil {
		t.Fatalf("FetchChannelVideos returned error: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}
}

func TestFetchChannelVideosFallsBackToPage(t *testing.T) {
	f := &fixture{feedStatus: http.StatusInternalServerError}
	videos, err := newClient(t, f).FetchChannelVideos(context.Background(), channelID, 30)
	if err != nil {
		t.Fatalf("FetchChannelVideos returned error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 page videos, got %+v", videos)
	}
	if videos[0].VideoID != "vid00000001" || videos[0].Title != "Video One" || videos[0].PublishedAt != "1 day ago" {
		t.Fatalf("unexpected first page video: %+v", videos[0])
	}
	if videos[1].Title != "Video Two" || videos[1].DiscoveryIndex != 2 {
		t.Fatalf("unexpected second page video: %+v", videos[1])
	}
	if videos[1].ChannelName != "Channel" {
		t.Fatalf("unexpected channel name: %q", videos[1].ChannelName)
	}
}

func TestFetchChannelVideosIgnoresShortIDs(t *testing.T) {
	f := &fixture{}
	videos, err := newClient(t, f).FetchChannelVideos(context.Background(), "UC1", 30)
	if err != nil || videos != nil {
		t.Fatalf("expected nothing for short id, got %v %v", videos, err)
	}
	if seen := f.seen(); len(seen) != 0 {
		t.Fatalf("expected no requests, got %v", seen)
	}
}

func TestResolveChannelID(t *testing.T) {
	client := newClient(t, &fixture{})
	id, err := client.ResolveChannelID(context.Background(), "https://www.youtube.com/channel/"+channelID)
	if err != nil || id != channelID {
		t.Fatalf("direct id: got %q err %v", id, err)
	}
}

func TestResolveChannelIDFetchesPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/@handle", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script>{"externalId":"` + channelID + `"}</script>`))
	})
	mux.HandleFunc("/@nobody", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := youtube.NewClient(httpfetch.New("test", time.Second), logging.NewNop())

	id, err := client.ResolveChannelID(context.Background(), server.URL+"/@handle")
	if err != nil {
		t.Fatalf("ResolveChannelID returned error: %v", err)
	}
	if id != channelID {
		t.Fatalf("got %q want %q", id, channelID)
	}

	_, err = client.ResolveChannelID(context.Background(), server.URL+"/@nobody")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestFetchVideoMetadata(t *testing.T) {
	client := newClient(t, &fixture{})
	meta, ok, err := client.FetchVideoMetadata(context.Background(), "dQw4w9WgXcQ")
	if err != nil || !ok {
		t.Fatalf("FetchVideoMetadata: ok=%v err=%v", ok, err)
	}
	if meta.Title != "A Great Video" {
		t.Fatalf("unexpected title: %q", meta.Title)
	}
	if meta.ChannelName != "Great Channel" {
		t.Fatalf("unexpected channel: %q", meta.ChannelName)
	}
	if meta.PublishedAt != "2024-02-03T00:00:00Z" {
		t.Fatalf("unexpected published_at: %q", meta.PublishedAt)
	}
	if meta.ChannelID != "UCzzzzzzzzzzzzzzzzzzzzzz" {
		t.Fatalf("unexpected channel id: %q", meta.ChannelID)
	}

	_, ok, err = client.FetchVideoMetadata(context.Background(), "missing0000")
	if err != nil || ok {
		t.Fatalf("expected missing video to report ok=false without error, got ok=%v err=%v", ok, err)
	}
}

func TestFetchOEmbed(t *testing.T) {
	embed, err := newClient(t, &fixture{}).FetchOEmbed(context.Background(), youtube.WatchURL("dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("FetchOEmbed returned error: %v", err)
	}
	if embed.Title != "Embedded Title" || embed.AuthorName != "Embed Channel" {
		t.Fatalf("unexpected oembed: %+v", embed)
	}
}
