package http

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const canonicalRouteContextKey contextKey = "canonicalRoute"

func annotateRequestRoute(r *http.Request, route string) {
	if r == nil || route == "" {
		return
	}
	ctx := context.WithValue(r.Context(), canonicalRouteContextKey, route)
	*r = *r.WithContext(ctx)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if route, ok := ctx.Value(canonicalRouteContextKey).(string); ok {
		return route
	}
	return ""
}

// canonicalPath bounds label cardinality for requests that never reached a
// registered route.
func canonicalPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "/" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/api/") {
		return "/api/:unmatched"
	}
	return "/:unmatched"
}

func routeHandler(route string, handler http.Handler) http.Handler {
	if route == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotateRequestRoute(r, route)
		handler.ServeHTTP(w, r)
	})
}
