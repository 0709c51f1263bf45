// Package summary turns cached raw payloads into cached LLM summaries.
//
// A summary is regenerated only when the raw content hash or the active
// prompt version changes, or when the caller forces it. Prompts come from a
// YAML file keyed by source kind, optionally overridden by a JSON file that
// `prompts set` maintains; every override bumps the prompt version so stale
// summaries are invalidated. Background generation for single items is
// tracked in an explicit StatusTable.
package summary
