package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	serverHTTP "soullab/internal/server/http"
	"soullab/internal/shared/async"
)

// NewHandler builds the routed HTTP handler for c.
func NewHandler(c *Components) http.Handler {
	cfg := c.Config.Server
	api := serverHTTP.NewAPIHandler(c.Engine, c.Fortune,
		serverHTTP.WithAnswerCache(serverHTTP.NewAnswerCache(cfg.CacheSize, cfg.CacheTTL)),
		serverHTTP.WithCacheMetrics(c.EngineMetrics),
		serverHTTP.WithTracer(c.Tracer),
		serverHTTP.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	return serverHTTP.NewRouter(serverHTTP.RouterDeps{
		API:      api,
		Tracer:   c.Tracer,
		Metrics:  c.HTTPMetrics,
		Gatherer: c.Registry,
	}, serverHTTP.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit: serverHTTP.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimitRPM,
			Burst:             cfg.RateLimitBurst,
		},
	})
}

// RunServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func RunServer(ctx context.Context, c *Components) error {
	cfg := c.Config.Server
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(c),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	defer c.Shutdown(cfg.ShutdownTimeout)

	errCh := async.GoErr(c.Logger, "server.listen", func() error {
		c.Logger.Info("Server listening on %s", server.Addr)
		return server.ListenAndServe()
	})

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		c.Logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		shutdownErr := server.Shutdown(shutdownCtx)

		serveErr := <-errCh
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		return serveErr
	}
}
