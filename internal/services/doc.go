// Package services holds the error markers shared by the external service
// clients (HTTP fetching, the LLM endpoint) and the ingestion stages.
//
// Wrap tags a failure with a marker such as ErrNotFound or ErrTransient so run
// reports can classify per-item warnings without string matching.
package services
