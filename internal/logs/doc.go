// Package logs reads back the readlist log file: the last lines, optionally
// filtered to one refresh run, and a polling follow mode.
package logs
