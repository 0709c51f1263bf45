// Package contentcache stores raw content payloads and generated summaries as
// JSON files keyed by content id.
//
// Raw payloads live under <raw>/<namespace>/<id>.json and carry the sha256
// content hash used for staleness checks. Summaries live under
// <summaries>/<id>.json. Unreadable files are treated as absent.
package contentcache
