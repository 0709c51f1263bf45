// Package tracker owns the locally tracked transcript store: a
// transcript_metadata.json file keyed by video id plus one
// transcripts/<id>.txt file per video.
//
// The store is loaded once per run, mutated in memory and saved atomically.
// Import registers a single transcript obtained from a TranscriptFetcher,
// using oEmbed for the title and channel name.
package tracker
