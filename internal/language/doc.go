// Package language normalizes the language codes attached to articles and
// transcripts (html lang attributes, detector output, user input) to
// ISO 639-1.
package language
