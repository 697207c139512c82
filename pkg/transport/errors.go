package transport

import (
	"encoding/json"
	"net/http"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
)

// HTTPStatusFromError maps an APIError kind to the corresponding HTTP
// status code. Transport-level failures (body too large, bad JSON) are
// handled directly in the handlers.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Kind {
	case api.ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorKindForbidden:
		return http.StatusForbidden
	case api.ErrorKindNotFound:
		return http.StatusNotFound
	case api.ErrorKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes the flat JSON error envelope with the given
// status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr.Message})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error kind.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
