package api

import "fmt"

// ErrorKind represents the category of an API error.
type ErrorKind string

const (
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	ErrorKindUnauthorized   ErrorKind = "unauthorized"
	ErrorKindForbidden      ErrorKind = "forbidden"
	ErrorKindNotFound       ErrorKind = "not_found"
	ErrorKindConflict       ErrorKind = "conflict"
	ErrorKindServerError    ErrorKind = "server_error"
)

// APIError is a structured error carried from the service layer to the
// transport layer, which maps the kind to an HTTP status code. The Message
// is client-facing and stable; internal detail never leaks through it.
type APIError struct {
	Kind    ErrorKind
	Param   string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Kind, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorResponse is the flat JSON error envelope: {"error": "<message>"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request payloads.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Kind:    ErrorKindInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewUnauthorizedError creates an APIError for failed authentication.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindUnauthorized,
		Message: message,
	}
}

// NewForbiddenError creates an APIError for denied authorization.
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindForbidden,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindNotFound,
		Message: message,
	}
}

// NewConflictError creates an APIError for state conflicts such as
// duplicate registrations or repeated votes.
func NewConflictError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindConflict,
		Message: message,
	}
}

// NewServerError creates an APIError for internal failures. Callers pass a
// generic message; the underlying cause belongs in the log, not the response.
func NewServerError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindServerError,
		Message: message,
	}
}
