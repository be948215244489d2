package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// requestIDHeaders are consulted in order for a caller-provided id.
// Some storefront proxies only send X-Correlation-ID.
var requestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// RequestIDFromContext returns the request id stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID tags every request with an id, echoed in the X-Request-ID
// response header and stored in the context. A caller-provided id is kept
// when it is a short token of safe characters; anything else is replaced by
// a time-ordered UUID so ids sort with the logs.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := incomingRequestID(r)
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

func incomingRequestID(r *http.Request) string {
	for _, h := range requestIDHeaders {
		if id := r.Header.Get(h); id != "" {
			if validRequestID(id) {
				return id
			}
			return ""
		}
	}
	return ""
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// validRequestID accepts 1-128 bytes of letters, digits and "-_.:".
// Spaces and quotes are rejected so ids can be logged verbatim.
func validRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
