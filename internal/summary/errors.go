package summary

import (
	"errors"
	"strings"
)

var (
	// ErrRawMissing is returned when a record has no cached raw payload.
	ErrRawMissing = errors.New("raw content not found")
	// ErrNoContent is returned when the raw payload has no body to summarise.
	ErrNoContent = errors.New("no content to summarise")
	// ErrUnsupportedSourceType is returned for records of an unknown kind.
	ErrUnsupportedSourceType = errors.New("unsupported source type for summarization")
)

// ConfigError reports a summarization setup problem such as a missing API
// key or prompt file. It aborts the summarization phase of a refresh but
// leaves ingestion results intact.
type ConfigError struct {
	Reason string
	Hint   string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("summary configuration: ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err carries a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
