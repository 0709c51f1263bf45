// Package preflight checks that a configuration can run a refresh: writable
// directories, a parseable source list, loadable prompts and a reachable LLM.
package preflight
