package model

import (
	"errors"
	"fmt"
)

// ConfigurationError means a city key is unknown or explicitly disabled.
// It aborts the invocation that referenced the city; nothing else.
type ConfigurationError struct {
	City   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("city %q: %s", e.City, e.Reason)
}

// SourceUnavailableError means an external provider could not be reached or
// answered with a non-2xx status. Recorded in the batch summary; the run
// continues with whatever was already fetched.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// GeometryError means a feature's geometry could not be parsed or normalized.
// The feature is skipped and the error recorded.
type GeometryError struct {
	Reason string
	Err    error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geometry: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("geometry: %s", e.Reason)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ValidationError means a would-be neighborhood is missing a required
// attribute. The feature is skipped and the error recorded.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsSourceUnavailable reports whether err is (or wraps) a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}

// IsGeometry reports whether err is (or wraps) a GeometryError.
func IsGeometry(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
