package id

import "context"

type contextKey string

const (
	requestKey contextKey = "soullab_request_id"
	logKey     contextKey = "soullab_log_id"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestKey, requestID)
}

// RequestIDFromContext returns the request identifier, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestKey).(string); ok {
		return v
	}
	return ""
}

// WithLogID stores the log identifier used to correlate log lines.
func WithLogID(ctx context.Context, logID string) context.Context {
	if logID == "" {
		return ctx
	}
	return context.WithValue(ctx, logKey, logID)
}

// LogIDFromContext returns the log identifier, falling back to the request id.
func LogIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(logKey).(string); ok && v != "" {
		return v
	}
	return RequestIDFromContext(ctx)
}
