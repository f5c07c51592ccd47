package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soullab/internal/shared/logging"
	"soullab/internal/shared/utils"
	id "soullab/internal/utils/id"
)

func TestCORSMiddlewareAllowsListedOrigins(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped := CORSMiddleware([]string{"https://soul.example"})(handler)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://soul.example")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://soul.example" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
}

func TestCORSMiddlewareIgnoresUnlistedOrigins(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	wrapped := CORSMiddleware([]string{"https://soul.example"})(handler)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://malicious.example")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin for unlisted origin, got %q", got)
	}
}

func TestCORSMiddlewareWildcardAndPreflight(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	wrapped := CORSMiddleware([]string{"*"})(handler)

	req := httptest.NewRequest(http.MethodOptions, "/api/empathy/answer", nil)
	req.Header.Set("Origin", "https://any.example")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://any.example" {
		t.Fatalf("expected origin echoed for wildcard, got %q", got)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if called {
		t.Fatalf("preflight must not reach the handler")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen, seenLog string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = id.RequestIDFromContext(r.Context())
		seenLog = id.LogIDFromContext(r.Context())
	})
	wrapped := RequestIDMiddleware()(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-from-client")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if seen != "req-from-client" || rec.Header().Get(requestIDHeader) != "req-from-client" {
		t.Fatalf("expected client request id to propagate, got ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}
	if seenLog != "req-from-client" {
		t.Fatalf("expected log id to fall back to request id, got %q", seenLog)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logIDHeader, "session-7")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	if seenLog != "session-7" {
		t.Fatalf("expected X-Log-ID to propagate, got %q", seenLog)
	}

	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "req-from-client" {
		t.Fatalf("expected a generated request id, got %q", seen)
	}
}

func TestLoggingMiddlewareTagsLogID(t *testing.T) {
	if err := logging.CloseFiles(); err != nil {
		t.Fatalf("close log files: %v", err)
	}
	dir := t.TempDir()
	utils.SetLogDir(dir)
	t.Cleanup(func() {
		_ = logging.CloseFiles()
		utils.SetLogDir("")
	})

	logger := logging.NewAuditLogger("Router")
	wrapped := RequestIDMiddleware()(LoggingMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(logIDHeader, "session-9")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	data, err := os.ReadFile(filepath.Join(dir, "soullab-audit.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if line := string(data); !strings.Contains(line, "[log_id=session-9]") || !strings.Contains(line, "GET /api/health") {
		t.Fatalf("expected tagged request line, got %q", line)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	RecoverMiddleware(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{RequestsPerMinute: 60, Burst: 1})
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.allow("ip:a") {
		t.Fatalf("first request should pass")
	}
	if limiter.allow("ip:a") {
		t.Fatalf("second request within the same instant should be limited")
	}
	if !limiter.allow("ip:b") {
		t.Fatalf("other clients keep their own budget")
	}
	now = now.Add(time.Second)
	if !limiter.allow("ip:a") {
		t.Fatalf("request after refill should pass")
	}
}

func TestObservabilityMiddlewareResolvesAnnotatedRoute(t *testing.T) {
	var logged []string
	logger := recordingLogger{lines: &logged}
	handler := routeHandler("/api/birth/solar", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))
	wrapped := ObservabilityMiddleware(nil, nil, logger)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/birth/solar", nil))

	if len(logged) != 1 {
		t.Fatalf("expected one latency line, got %d", len(logged))
	}
	want := "route=/api/birth/solar method=POST status=201"
	if got := logged[0]; len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("unexpected latency line %q", got)
	}
}

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"/":             "/",
		"/api/whatever": "/api/:unmatched",
		"/favicon.ico":  "/:unmatched",
	}
	for in, want := range cases {
		if got := canonicalPath(in); got != want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}
