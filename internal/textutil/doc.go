// Package textutil provides small text helpers shared by the ingestion and
// summary packages.
//
// The primary use cases are:
//   - Content identity digests (sha1 ids, sha256 content hashes)
//   - Compact slugs for fuzzy name matching
//   - Title casing for source list section names
//   - Rune-safe truncation of prompt bodies
//   - Reducing scraped HTML fragments to plain text
package textutil
