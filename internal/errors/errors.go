package errors

import (
	stderrors "errors"
	"fmt"
)

// KBError is the structured error returned across package boundaries.
type KBError struct {
	// Code is the stable identifier, e.g. "ERR_404_QUERY_EMPTY".
	Code string

	// Message is the human-readable message.
	Message string

	Category Category
	Severity Severity

	// Details carries extra key/value context (path, query, ...).
	Details map[string]string

	// Cause is the wrapped lower-level error, if any.
	Cause error

	// Suggestion is an actionable hint shown by the CLI.
	Suggestion string
}

func (e *KBError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *KBError) Unwrap() error {
	return e.Cause
}

// Is matches another *KBError by code so that errors.Is works against
// sentinel values built with New.
func (e *KBError) Is(target error) bool {
	if t, ok := target.(*KBError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail attaches a key/value pair and returns e for chaining.
func (e *KBError) WithDetail(key, value string) *KBError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user-facing hint and returns e for chaining.
func (e *KBError) WithSuggestion(suggestion string) *KBError {
	e.Suggestion = suggestion
	return e
}

// New creates a KBError; category and severity are derived from code.
func New(code, message string, cause error) *KBError {
	return &KBError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap turns err into a KBError with the given code, reusing its message.
// Wrap returns nil for a nil err.
func Wrap(code string, err error) *KBError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *KBError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates a storage error.
func StorageError(message string, cause error) *KBError {
	return New(ErrCodeStorageFailure, message, cause)
}

// ValidationError creates an invalid-input error.
func ValidationError(message string, cause error) *KBError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *KBError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first KBError in err's chain.
func As(err error) (*KBError, bool) {
	var ke *KBError
	if stderrors.As(err, &ke) {
		return ke, true
	}
	return nil, false
}

// GetCode returns the code of the first KBError in err's chain, or "".
func GetCode(err error) string {
	if ke, ok := As(err); ok {
		return ke.Code
	}
	return ""
}

// IsInvalidInput reports whether err was caused by the caller's input
// rather than by storage or an internal failure.
func IsInvalidInput(err error) bool {
	if ke, ok := As(err); ok {
		return ke.Category == CategoryValidation
	}
	return false
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	if ke, ok := As(err); ok {
		return ke.Severity == SeverityFatal
	}
	return false
}
