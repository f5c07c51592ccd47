package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"soullab/internal/empathy"
	"soullab/internal/fortune"
	"soullab/internal/observability"
	jsonx "soullab/internal/shared/json"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.FixedZone("KST", 9*60*60))

type testServer struct {
	handler http.Handler
	metrics *observability.EngineMetrics
	cache   *AnswerCache
	spans   *tracetest.SpanRecorder
}

func newTestServer(t *testing.T, cfg RouterConfig) testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	engineMetrics := observability.NewEngineMetricsWithRegisterer(reg)
	collector, err := observability.NewMetricsCollector(observability.MetricsConfig{Enabled: true}, reg)
	require.NoError(t, err)
	spans := tracetest.NewSpanRecorder()
	tracer := observability.NewTracerProviderWithProcessor(spans)

	engine, err := empathy.NewEngine(
		empathy.WithClock(func() time.Time { return testNow }),
		empathy.WithRecorder(engineMetrics),
	)
	require.NoError(t, err)
	fortuneEngine, err := fortune.NewEngine(nil, nil)
	require.NoError(t, err)

	cache := NewAnswerCache(16, time.Minute)
	api := NewAPIHandler(engine, fortuneEngine,
		WithAnswerCache(cache),
		WithCacheMetrics(engineMetrics),
		WithTracer(tracer),
	)
	return testServer{
		handler: NewRouter(RouterDeps{API: api, Tracer: tracer, Metrics: collector, Gatherer: reg}, cfg),
		metrics: engineMetrics,
		cache:   cache,
		spans:   spans,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const answerBody = `{
  "name": "민지",
  "birth": {"year": 1994, "month": 8, "day": 2},
  "question": "헤어진 사람이 너무 보고 싶은데 재회할 수 있을까요?",
  "cards": ["The Lovers", "Five of Cups", "The Star"],
  "env": {"weather": "비", "dayPeriod": "저녁", "location": "서울"}
}`

func TestHandleAnswer(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rec := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", answerBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var got empathy.Answer
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, empathy.TopicLove, got.Meta.Topic)
	assert.Equal(t, "leo", got.Meta.Persona.Key)
	assert.True(t, got.Meta.BeliefOK)
	assert.Len(t, got.Meta.Picked, 6)
	assert.True(t, strings.HasPrefix(got.Text, "민지님, "))

	again := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", answerBody)
	require.Equal(t, http.StatusOK, again.Code)
	assert.JSONEq(t, rec.Body.String(), again.Body.String())

	assert.Equal(t, 1, srv.cache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.CacheLookups("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.CacheLookups("miss")))
}

func TestHandleAnswerMatchesDirectEngineCall(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	rec := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", answerBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var in empathy.Input
	require.NoError(t, jsonx.Unmarshal([]byte(answerBody), &in))
	engine, err := empathy.NewEngine(empathy.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	want, err := jsonx.Marshal(engine.Answer(in))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), rec.Body.String())
}

func TestHandleAnswerRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"malformed", `{"question":`, http.StatusBadRequest, "invalid JSON body"},
		{"unknown field", `{"question":"q","credits":3}`, http.StatusBadRequest, "invalid JSON body"},
		{"trailing data", `{"question":"q"} {}`, http.StatusBadRequest, "invalid JSON body"},
		{"too large", `{"question":"` + strings.Repeat("가", 8<<10) + `"}`, http.StatusRequestEntityTooLarge, "request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var resp apiErrorResponse
			require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.errMsg, resp.Error)
		})
	}
}

func TestHandleAnswerTreatsFieldsAsOptional(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	tests := []struct {
		name string
		body string
	}{
		{"no question", `{"name":"민지","birth":{"year":1994,"month":8,"day":2},"cards":["The Star"]}`},
		{"empty body", `{}`},
		{"unknown style", `{"question":"이직해도 될까요?","style":"loud"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var got empathy.Answer
			require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got.Text, "질문 하나만 더:")
			assert.Len(t, got.Meta.Picked, 6)
		})
	}
}

func TestHandleAnswerSpanCoversBuild(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	rec := doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", answerBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var answerSpan sdktrace.ReadOnlySpan
	for _, span := range srv.spans.Ended() {
		if span.Name() == observability.SpanEmpathyAnswer {
			answerSpan = span
		}
	}
	require.NotNil(t, answerSpan)
	assert.True(t, answerSpan.EndTime().After(answerSpan.StartTime()))
	assert.Contains(t, answerSpan.Attributes(), attribute.String(observability.AttrTopic, string(empathy.TopicLove)))
	assert.Contains(t, answerSpan.Attributes(), attribute.Bool(observability.AttrCacheHit, false))
}

func TestHandleSolar(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	rec := doJSON(t, srv.handler, http.MethodPost, "/api/birth/solar", `{"year":1956,"month":1,"day":21,"calendar":"lunar"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got empathy.SolarBirth
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Converted)
	assert.Equal(t, 1956, got.Solar.Year)
	assert.Equal(t, 3, got.Solar.Month)
	assert.Equal(t, 3, got.Solar.Day)

	rec = doJSON(t, srv.handler, http.MethodPost, "/api/birth/solar", `{"year":1956}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFortune(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	body := `{"name":"민지","birth":{"year":1994,"month":8,"day":2},"date":"2026-03-02","dayPeriod":"저녁","cards":["The Lovers","The Star"]}`

	rec := doJSON(t, srv.handler, http.MethodPost, "/api/fortune/daily", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got fortune.Fortune
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2026-03-02", got.Date)
	require.Len(t, got.Categories, 5)
	assert.Equal(t, "overall", got.Categories[0].Category)
	assert.Equal(t, 75, got.Categories[0].Score)

	rec = doJSON(t, srv.handler, http.MethodPost, "/api/fortune/daily", `{"birth":{"year":1994,"month":8,"day":2},"date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	doJSON(t, srv.handler, http.MethodPost, "/api/empathy/answer", answerBody)

	rec := doJSON(t, srv.handler, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	require.NotEmpty(t, health.Components)
	assert.Equal(t, "corpus", health.Components[0].Name)

	rec = doJSON(t, srv.handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, "soullab_empathy_answers_total")
	assert.Contains(t, text, "soullab_answer_cache_total")
	assert.Contains(t, text, "soullab_http_requests")
}

func TestRouterRejectsWrongMethodAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})
	assert.Equal(t, http.StatusMethodNotAllowed, doJSON(t, srv.handler, http.MethodGet, "/api/empathy/answer", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv.handler, http.MethodGet, "/api/nope", "").Code)
}

func TestRouterRateLimits(t *testing.T) {
	srv := newTestServer(t, RouterConfig{RateLimit: RateLimitConfig{RequestsPerMinute: 1, Burst: 2}})
	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", bytes.NewReader(nil))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
