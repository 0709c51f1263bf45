// Package config loads, normalizes, and validates readlist configuration data.
//
// It supplies repository defaults (XDG-aware data, cache, and config
// locations), expands user paths including tilde shortcuts, reads TOML files,
// and honours environment fallbacks such as OPENAI_API_KEY and OPENAI_MODEL.
// The Config type centralizes the knobs the ingestors, the summarizer, and the
// CLI need, and derives the on-disk layout (index, caches, ledger, lock file)
// from the configured directories.
package config
