// Package contentindex maintains the persistent index of content records.
//
// The index is loaded whole, mutated in memory and rewritten atomically on
// Save. Records are keyed by content id; DedupeByURL collapses records that
// different fetch paths produced for the same original URL.
package contentindex
