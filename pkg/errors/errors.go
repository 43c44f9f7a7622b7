package errors

import (
	"fmt"
)

// SourceError represents a failed fetch against the event source.
// A SourceError for any window is fatal to the whole aggregation call;
// it is propagated unchanged and no partial series is returned.
type SourceError struct {
	Op          string // "fetch_payments" or "fetch_disputes"
	WindowLabel string
	StatusCode  int // HTTP status when applicable, 0 otherwise
	IsRetriable bool
	Err         error
}

func (e *SourceError) Error() string {
	if e.WindowLabel != "" {
		return fmt.Sprintf("%s failed for window %s: %v", e.Op, e.WindowLabel, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new source fetch error
func NewSourceError(op string, statusCode int, retriable bool, err error) *SourceError {
	return &SourceError{
		Op:          op,
		StatusCode:  statusCode,
		IsRetriable: retriable,
		Err:         err,
	}
}

// ConfigError represents an invalid or ambiguous configuration value.
// Basis declarations are validated at configuration time so that an
// ambiguous classification basis is rejected before any aggregation runs.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error on field '%s': %s", e.Field, e.Message)
}

// NewConfigError creates a new configuration error
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}
