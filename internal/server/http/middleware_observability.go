package http

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"soullab/internal/observability"
	"soullab/internal/shared/logging"
)

// ObservabilityMiddleware instruments HTTP requests with tracing, metrics, and optional latency logging.
func ObservabilityMiddleware(tracer *observability.TracerProvider, metrics *observability.MetricsCollector, latencyLogger logging.Logger) func(http.Handler) http.Handler {
	hasLatencyLogger := !logging.IsNil(latencyLogger)
	return func(next http.Handler) http.Handler {
		if tracer == nil && metrics == nil && !hasLatencyLogger {
			return next
		}
		latencyLogger = logging.OrNop(latencyLogger)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rec := wrapResponseWriter(w)
			start := time.Now()
			initialRoute := canonicalPath(r.URL.Path)
			resolveRoute := func() string {
				if route := routeFromContext(r.Context()); route != "" {
					return route
				}
				return initialRoute
			}

			if tracer != nil {
				spanCtx, span := tracer.StartSpan(ctx, observability.SpanHTTPServer,
					attribute.String("http.route", initialRoute),
					attribute.String("http.method", r.Method),
				)
				r = r.WithContext(spanCtx)
				defer func() {
					if rec.status >= http.StatusInternalServerError {
						span.SetStatus(codes.Error, http.StatusText(rec.status))
					}
					span.SetAttributes(
						attribute.Int("http.status_code", rec.status),
						attribute.String("http.route", resolveRoute()),
					)
					span.End()
				}()
			}

			next.ServeHTTP(rec, r)

			route := resolveRoute()
			latency := time.Since(start)
			if metrics != nil {
				metrics.RecordHTTPServerRequest(ctx, route, r.Method, rec.status, latency)
			}
			if hasLatencyLogger {
				latencyLogger.Info(
					"route=%s method=%s status=%d latency_ms=%.2f bytes=%d",
					route,
					r.Method,
					rec.status,
					float64(latency.Microseconds())/1000.0,
					rec.bytes,
				)
			}
		})
	}
}
