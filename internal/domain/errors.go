// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds of one analysis attempt.
var (
	// ErrValidation indicates a mode-required form field is empty.
	// It is raised before any transport call is made.
	ErrValidation = errors.New("validation failed")

	// ErrTransport indicates the exchange with the prediction backend failed.
	ErrTransport = errors.New("prediction backend unavailable")

	// ErrNormalization indicates the backend answered but the response
	// cannot be reduced to an AnalysisResult.
	ErrNormalization = errors.New("unusable prediction response")

	// ErrBusy indicates an analysis is already in flight.
	ErrBusy = errors.New("analysis already in progress")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError reports an empty or malformed form field.
type ValidationError struct {
	// Field is the form field that failed validation.
	Field string

	// Reason describes why the field was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError wraps a failed request/response exchange.
type TransportError struct {
	// Op is the transport step that failed.
	Op string

	// StatusCode is the HTTP status returned by the backend, 0 if none.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NormalizationError reports a structurally unusable backend response.
type NormalizationError struct {
	// Field is the response field that was missing or invalid.
	Field string

	// Reason describes the problem.
	Reason string
}

// Error implements the error interface.
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrNormalization.
func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

// WrapTransport creates a new TransportError with context.
func WrapTransport(op string, statusCode int, err error) *TransportError {
	return &TransportError{
		Op:         op,
		StatusCode: statusCode,
		Err:        err,
	}
}

// UserMessage returns the single message shown to the user for err.
// Internal details never leak through it.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		switch ve.Field {
		case "email_body":
			return "Please paste the email content to analyze."
		case "url":
			return "Please enter a URL or email address to analyze."
		default:
			return "Please fill in the required field."
		}
	case errors.Is(err, ErrValidation):
		return "Please fill in the required field."
	case errors.Is(err, ErrBusy):
		return "An analysis is already running. Please wait for it to finish."
	case errors.Is(err, ErrTransport):
		return "Failed to analyze. Please ensure the prediction backend is running."
	case errors.Is(err, ErrNormalization):
		return "The prediction backend returned an unexpected response."
	default:
		return "Internal error during analysis."
	}
}
