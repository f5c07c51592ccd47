package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"soullab/internal/empathy"
	"soullab/internal/fortune"
	"soullab/internal/observability"
	jsonx "soullab/internal/shared/json"
	"soullab/internal/shared/logging"
)

const defaultMaxBodyBytes = 16 << 10

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	engine       *empathy.Engine
	fortune      *fortune.Engine
	cache        *AnswerCache
	cacheMetrics *observability.EngineMetrics
	tracer       *observability.TracerProvider
	logger       logging.Logger
	maxBodyBytes int64
}

// APIHandlerOption customizes an APIHandler.
type APIHandlerOption func(*APIHandler)

// WithAnswerCache enables answer memoization.
func WithAnswerCache(cache *AnswerCache) APIHandlerOption {
	return func(h *APIHandler) { h.cache = cache }
}

// WithCacheMetrics records cache hits and misses.
func WithCacheMetrics(m *observability.EngineMetrics) APIHandlerOption {
	return func(h *APIHandler) { h.cacheMetrics = m }
}

// WithTracer adds per-answer spans.
func WithTracer(tp *observability.TracerProvider) APIHandlerOption {
	return func(h *APIHandler) { h.tracer = tp }
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) APIHandlerOption {
	return func(h *APIHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(logger logging.Logger) APIHandlerOption {
	return func(h *APIHandler) { h.logger = logging.OrNop(logger) }
}

// NewAPIHandler wires the engines into HTTP handlers.
func NewAPIHandler(engine *empathy.Engine, fortuneEngine *fortune.Engine, opts ...APIHandlerOption) *APIHandler {
	h := &APIHandler{
		engine:       engine,
		fortune:      fortuneEngine,
		logger:       logging.NewComponentLogger("APIHandler"),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleAnswer builds an empathic answer for the posted input.
func (h *APIHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var in empathy.Input
	if !h.decode(w, r, &in) {
		return
	}
	// Every field is optional; unknown styles fall back to the persona tone.
	if in.Style != empathy.StyleSoft && in.Style != empathy.StyleDirect {
		in.Style = ""
	}

	in.SeedKey = h.engine.ResolveSeed(in)
	key, err := answerCacheKey(in)
	if err != nil {
		writeJSONError(h.logger, w, http.StatusInternalServerError, "failed to fingerprint request", err)
		return
	}

	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.StartSpan(ctx, observability.SpanEmpathyAnswer)
		defer span.End()
	}

	answer, hit := h.cache.Get(key)
	if h.cache != nil {
		h.cacheMetrics.RecordCacheLookup(hit)
	}
	if !hit {
		answer = h.engine.Answer(in)
		h.cache.Add(key, answer)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		observability.AnswerAttrs(string(answer.Meta.Topic), string(answer.Meta.Need), string(answer.Meta.Tempo), hit)...)
	writeJSON(h.logger, w, http.StatusOK, answer)
}

// HandleSolar converts a birth date to the solar calendar.
func (h *APIHandler) HandleSolar(w http.ResponseWriter, r *http.Request) {
	var birth empathy.Birth
	if !h.decode(w, r, &birth) {
		return
	}
	if birth.Year == 0 || birth.Month == 0 || birth.Day == 0 {
		writeJSONError(h.logger, w, http.StatusBadRequest, "year, month and day are required", nil)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, empathy.ToSolarBirth(birth))
}

// HandleFortune evaluates the daily fortune.
func (h *APIHandler) HandleFortune(w http.ResponseWriter, r *http.Request) {
	var req fortune.Request
	if !h.decode(w, r, &req) {
		return
	}
	if h.tracer != nil {
		_, span := h.tracer.StartSpan(r.Context(), observability.SpanFortuneDaily)
		defer span.End()
	}
	out, err := h.fortune.Evaluate(req)
	if err != nil {
		writeJSONError(h.logger, w, http.StatusBadRequest, "invalid fortune request", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, out)
}

// HandleHealth reports component readiness.
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	components := []componentHealth{
		{Name: "corpus", Status: "ready", Detail: fmt.Sprintf("%d parts", h.engine.Corpus().Len())},
		{Name: "fortune", Status: "ready"},
	}
	if h.fortune == nil {
		components[1].Status = "disabled"
	}
	if h.cache != nil {
		components = append(components, componentHealth{Name: "answer_cache", Status: "ready", Detail: fmt.Sprintf("%d entries", h.cache.Len())})
	}
	writeJSON(h.logger, w, http.StatusOK, healthResponse{Status: "healthy", Components: components})
}

type componentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components []componentHealth `json:"components"`
}

// decode reads one JSON object, rejecting oversized bodies, unknown
// fields and trailing data.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := jsonx.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeJSONError(h.logger, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		writeJSONError(h.logger, w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSONError(h.logger, w, http.StatusBadRequest, "invalid JSON body", errors.New("body must contain a single JSON object"))
		return false
	}
	return true
}
