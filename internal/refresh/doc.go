// Package refresh runs the end-to-end pipeline: parse the source list,
// ingest blogs and videos into the raw cache and content index, remove URL
// duplicates, and summarise. A run holds an exclusive file lock so only one
// refresh (or summarize/prune pass) touches the data directory at a time.
package refresh
