package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/api"
)

// ExtractBearer pulls the token out of an Authorization header value.
// The header must split on whitespace into exactly "Bearer <value>";
// an absent header is KindMissing, anything else that fails the split
// (a bare "Bearer", a wrong scheme, extra parts) is KindMalformed.
func ExtractBearer(header string) (string, *Error) {
	if header == "" {
		return "", errMissing()
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errBadHeader()
	}
	return parts[1], nil
}

// Authenticate resolves the principal asserted by the request's
// Authorization header, or the auth error that rejects it. Codec error
// kinds are propagated unchanged.
func Authenticate(codec *SessionCodec, r *http.Request, now time.Time) (int64, *Error) {
	token, err := ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return 0, err
	}
	return codec.Verify(token, now)
}

// Middleware is the auth gate: it verifies the bearer session token and
// injects the resolved principal into the request context before the
// wrapped handler runs. Any failure short-circuits with a 401 and a stable
// error body; no handler code executes on failure.
func Middleware(codec *SessionCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := Authenticate(codec, r, time.Now())
			if err != nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"reason", err.Message,
				)
				WriteError(w, err)
				return
			}

			slog.Debug("authentication succeeded",
				"principal", principal,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WriteError writes an auth failure as the flat JSON envelope with the
// status derived from the error kind.
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Message})
}
