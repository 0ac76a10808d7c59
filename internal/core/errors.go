package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a relay failure.
type ErrorKind string

const (
	// ErrorKindMethod indicates a request with an HTTP verb other than POST (405)
	ErrorKindMethod ErrorKind = "method_not_allowed"
	// ErrorKindValidation indicates a request without a usable prompt (400)
	ErrorKindValidation ErrorKind = "validation_error"
	// ErrorKindConfiguration indicates a server that cannot reach the upstream API
	// because it is misconfigured (500). Only an operator can fix it.
	ErrorKindConfiguration ErrorKind = "configuration_error"
	// ErrorKindUpstream indicates a fault while parsing the request, calling the
	// upstream API or extracting its text (500)
	ErrorKindUpstream ErrorKind = "upstream_error"
)

// Client-facing messages. They are part of the public contract of the endpoint.
const (
	MessageMethodNotAllowed = "Method Not Allowed"
	MessagePromptRequired   = "Prompt is required"
	MessageMissingAPIKey    = "Server configuration error: Gemini API Key is missing. Please contact support."
	MessageGenerationFailed = "Failed to generate tip"
)

var statusByKind = map[ErrorKind]int{
	ErrorKindMethod:        http.StatusMethodNotAllowed,
	ErrorKindValidation:    http.StatusBadRequest,
	ErrorKindConfiguration: http.StatusInternalServerError,
	ErrorKindUpstream:      http.StatusInternalServerError,
}

// RelayError is the error type returned by every failing relay step
type RelayError struct {
	Kind    ErrorKind
	Message string
	// Details is exposed to clients for upstream errors only
	Details string
	// Original error for debugging
	Err error
}

// Error implements the error interface
func (e *RelayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *RelayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code for this error's kind.
// Unknown kinds map to 500.
func (e *RelayError) HTTPStatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ToJSON converts the error to the response body sent to clients
func (e *RelayError) ToJSON() map[string]string {
	body := map[string]string{"error": e.Message}
	if e.Kind == ErrorKindUpstream {
		body["details"] = e.Details
	}
	return body
}

// NewMethodNotAllowedError creates a new method error (405)
func NewMethodNotAllowedError(method string) *RelayError {
	return &RelayError{
		Kind:    ErrorKindMethod,
		Message: MessageMethodNotAllowed,
		Err:     fmt.Errorf("method %q is not allowed", method),
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(err error) *RelayError {
	return &RelayError{
		Kind:    ErrorKindValidation,
		Message: MessagePromptRequired,
		Err:     err,
	}
}

// NewConfigurationError creates a new configuration error (500)
func NewConfigurationError(err error) *RelayError {
	return &RelayError{
		Kind:    ErrorKindConfiguration,
		Message: MessageMissingAPIKey,
		Err:     err,
	}
}

// NewUpstreamError creates a new upstream error (500). The message of err is
// exposed to the client as details.
func NewUpstreamError(err error) *RelayError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &RelayError{
		Kind:    ErrorKindUpstream,
		Message: MessageGenerationFailed,
		Details: details,
		Err:     err,
	}
}

// AsRelayError converts any error into a RelayError. Errors that are not
// already a RelayError are treated as upstream faults.
func AsRelayError(err error) *RelayError {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return NewUpstreamError(err)
}
