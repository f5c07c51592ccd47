package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soullab/internal/observability"
	"soullab/internal/shared/logging"
)

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      RateLimitConfig
}

// RouterDeps carries the collaborators the router wires together.
type RouterDeps struct {
	API      *APIHandler
	Tracer   *observability.TracerProvider
	Metrics  *observability.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter creates the HTTP handler with all endpoints and middleware.
func NewRouter(deps RouterDeps, cfg RouterConfig) http.Handler {
	logger := logging.NewComponentLogger("Router")
	latencyLogger := logging.NewLatencyLogger("HTTP")
	api := deps.API

	mux := http.NewServeMux()
	mux.Handle("POST /api/empathy/answer", routeHandler("/api/empathy/answer", http.HandlerFunc(api.HandleAnswer)))
	mux.Handle("POST /api/birth/solar", routeHandler("/api/birth/solar", http.HandlerFunc(api.HandleSolar)))
	mux.Handle("POST /api/fortune/daily", routeHandler("/api/fortune/daily", http.HandlerFunc(api.HandleFortune)))
	mux.Handle("GET /api/health", routeHandler("/api/health", http.HandlerFunc(api.HandleHealth)))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", routeHandler("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Apply middleware, innermost first.
	var handler http.Handler = mux
	handler = ObservabilityMiddleware(deps.Tracer, deps.Metrics, latencyLogger)(handler)
	handler = RateLimitMiddleware(cfg.RateLimit, logger)(handler)
	handler = CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = RecoverMiddleware(logger)(handler)

	return handler
}
