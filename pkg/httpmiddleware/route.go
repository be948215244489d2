package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteFinder returns the route pattern that serves r, or false when no route
// matches.
type RouteFinder func(r *http.Request) (string, bool)

// MakeRouteFinder resolves request routes against mux without serving them.
// Patterns keep their placeholders ("/api/v1/orders/{id}") so they are safe
// to use as low-cardinality log and metric labels.
func MakeRouteFinder(mux *chi.Mux) RouteFinder {
	return func(r *http.Request) (string, bool) {
		rctx := chi.NewRouteContext()
		pattern := mux.Find(rctx, r.Method, r.URL.Path)
		if pattern == "" {
			return "", false
		}
		return pattern, true
	}
}

// routeOrPath returns the matched pattern or a placeholder for unknown routes.
func routeOrPath(find RouteFinder, r *http.Request) string {
	if find == nil {
		return r.URL.Path
	}
	if route, ok := find(r); ok {
		return route
	}
	return "unknown"
}
