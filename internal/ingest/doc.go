// Package ingest turns source list entries into cached raw payloads and
// content index records.
//
// BlogIngestor walks blog listing pages; VideoIngestor resolves single videos
// and channels, merging the locally tracked transcript store with the remote
// channel listing. Both are idempotent: a raw payload is rewritten only when
// its content hash changes, and records are upserted by content id. Per-item
// failures are collected in a Report instead of aborting the batch.
package ingest
