package transport

import (
	"log/slog"
	"net/http"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
)

// Recovery returns middleware that catches panics in a handler and converts
// them to a 500 response. The server keeps accepting requests after a panic
// is recovered.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panicked",
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					WriteAPIError(w, api.NewServerError("Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
