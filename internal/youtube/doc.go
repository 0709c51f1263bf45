// Package youtube implements the video capabilities used by ingestion:
// video and channel id extraction, channel id resolution, recent channel
// uploads (RSS feed first, channel page second), watch-page metadata and
// oEmbed lookups.
//
// All network access goes through a Fetcher so tests can point the client at
// an httptest server with WithBaseURL.
package youtube
