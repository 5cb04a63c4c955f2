package errors

import (
	"errors"
	"fmt"
)

// SimError is the structured error type for simscore.
// It carries enough context for logging, request-layer status mapping and
// user presentation.
type SimError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_METHOD").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SimError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SimError) Unwrap() error {
	return e.Cause
}

// Is matches another SimError by code, so errors.Is works against the
// sentinel-style values built with New.
func (e *SimError) Is(target error) bool {
	if t, ok := target.(*SimError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SimError) WithDetail(key, value string) *SimError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SimError) WithSuggestion(suggestion string) *SimError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SimError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SimError {
	return &SimError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SimError from an existing error.
func Wrap(code string, err error) *SimError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidMethod reports a method selector outside the supported set.
func InvalidMethod(method string, valid []string) *SimError {
	return New(ErrCodeInvalidMethod,
		fmt.Sprintf("invalid method %q: choose one of %v", method, valid), nil).
		WithDetail("method", method)
}

// ModelUnavailable reports that the embedding encoder could not be loaded.
func ModelUnavailable(model string, cause error) *SimError {
	return New(ErrCodeModelUnavailable,
		fmt.Sprintf("embedding model %s is unavailable", model), cause).
		WithDetail("model", model).
		WithSuggestion("use method 'lexical', or check the embeddings provider configuration with 'simscore doctor'")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SimError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SimError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SimError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var se *SimError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from the first SimError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from the first SimError in the chain.
func GetCategory(err error) Category {
	var se *SimError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// IsClientError reports whether err was caused by the caller's input
// (validation category) rather than by the service.
func IsClientError(err error) bool {
	return GetCategory(err) == CategoryValidation
}
