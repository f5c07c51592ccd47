package empathy

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"soullab/internal/shared/logging"
)

// Recorder receives per-answer measurements. The observability package
// provides the Prometheus implementation.
type Recorder interface {
	RecordAnswer(topic, need, tempo string, elapsed time.Duration)
	RecordBeliefViolations(source string, count int)
	RecordUnresolvedPlaceholders(count int)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnswer(string, string, string, time.Duration) {}
func (nopRecorder) RecordBeliefViolations(string, int)                 {}
func (nopRecorder) RecordUnresolvedPlaceholders(int)                   {}

// Engine builds answers from a shared, read-only corpus. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	corpus   *Corpus
	logger   logging.Logger
	audit    logging.Logger
	recorder Recorder
	now      func() time.Time

	topCandidates  int
	baseReadingCap int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCorpus replaces the embedded corpus.
func WithCorpus(c *Corpus) Option {
	return func(e *Engine) {
		if c != nil {
			e.corpus = c
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(logger) }
}

// WithAuditLogger sets the logger that receives belief-guard findings.
func WithAuditLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.audit = logging.OrNop(logger) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the clock used when the input carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTopCandidates sets how many of the best scored parts are sampled per
// role. Non-positive values keep the default.
func WithTopCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topCandidates = n
		}
	}
}

// WithBaseReadingCap sets the rune cap applied to caller supplied readings.
func WithBaseReadingCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.baseReadingCap = n
		}
	}
}

// NewEngine returns an engine over the embedded corpus unless WithCorpus
// supplies another.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:   logging.Nop(),
		audit:    logging.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,

		topCandidates:  topCandidates,
		baseReadingCap: MaxBaseReadingRunes,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.corpus == nil {
		c, err := DefaultCorpus()
		if err != nil {
			return nil, fmt.Errorf("load embedded corpus: %w", err)
		}
		e.corpus = c
	}
	return e, nil
}

// Corpus returns the corpus the engine selects from.
func (e *Engine) Corpus() *Corpus {
	return e.corpus
}

// ResolveSeed returns the seed Answer would use for in right now.
func (e *Engine) ResolveSeed(in Input) string {
	return SeedKey(in, e.now())
}

// Answer builds the empathic answer for in. It never panics and always
// returns text that ends with the micro-question.
func (e *Engine) Answer(in Input) (answer Answer) {
	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("answer build panicked: %v", r)
			answer = fallbackAnswer(in)
		}
	}()

	question := in.Question
	topic := InferTopic(question)
	emotion := InferEmotion(question)
	intensity := InferIntensity(question)
	need := InferNeed(question, topic, emotion)
	tempo := ResolveTempo(topic, need, intensity)
	persona := SunZodiac(in.Birth)
	style := in.Style
	if style != StyleDirect && style != StyleSoft {
		style = persona.Tone
	}

	seed := SeedKey(in, start)
	rng := NewRNG(seed)
	avail := availabilityOf(in)
	vars := renderVars(in, persona, topic, emotion)
	used := make(usedSet, len(Roles))
	picked := make(map[Role]string, len(Roles))
	rendered := make(slots, len(Roles))
	var unresolved []string

	for _, role := range Roles {
		part := e.corpus.pickPart(rng, want{
			role:      role,
			topic:     topic,
			emotion:   emotion,
			intensity: intensity,
			style:     style,
			need:      need,
			tempo:     tempo,
			limit:     e.topCandidates,
		}, used, avail)
		picked[role] = part.ID
		text, missing := Render(part.Text, vars)
		rendered[role] = text
		unresolved = appendUnique(unresolved, missing...)
	}

	cards := nonEmpty(in.Cards)
	baseViolations := FindBeliefViolations(in.BaseReading)
	baseReading := sanitizeBaseReading(in.BaseReading, e.baseReadingCap)

	text := compose(headerLine(in.Name, persona), rendered, readingBody(cards, baseReading), MicroQuestion(topic, need))
	text = SoftenFatalism(text)
	text = NormalizeSecondPerson(text, in.Name)

	report := ValidateBeliefSystem(text, len(cards) > 0, baseReading != "")
	if !report.Anchored {
		text = AnchorPrefix + text
	}
	violations := appendUnique(append([]string(nil), baseViolations...), report.Violations...)

	meta := Meta{
		Topic:      topic,
		Emotion:    emotion,
		Need:       need,
		Intensity:  intensity,
		Tempo:      tempo,
		Style:      style,
		Persona:    persona,
		Seed:       seed,
		Picked:     picked,
		BeliefOK:   len(violations) == 0,
		Anchored:   report.Anchored,
		Unresolved: unresolved,
	}
	if len(violations) > 0 {
		meta.BeliefViolations = violations
	}

	e.observe(meta, len(baseViolations), len(report.Violations), e.now().Sub(start))
	return Answer{Text: text, Meta: meta}
}

func (e *Engine) observe(meta Meta, baseViolations, generatedViolations int, elapsed time.Duration) {
	e.logger.Debug("answer seed=%q topic=%s emotion=%s need=%s tempo=%s picked=%s",
		meta.Seed, meta.Topic, meta.Emotion, meta.Need, meta.Tempo, pickedSummary(meta.Picked))
	e.recorder.RecordAnswer(string(meta.Topic), string(meta.Need), string(meta.Tempo), elapsed)
	if baseViolations > 0 {
		e.audit.Info("stripped %d disallowed term(s) from base reading: %s", baseViolations, strings.Join(meta.BeliefViolations, ","))
		e.recorder.RecordBeliefViolations("base_reading", baseViolations)
	}
	if generatedViolations > 0 {
		e.audit.Warn("generated text carries disallowed term(s) seed=%q picked=%s", meta.Seed, pickedSummary(meta.Picked))
		e.recorder.RecordBeliefViolations("generated", generatedViolations)
	}
	if len(meta.Unresolved) > 0 {
		e.logger.Warn("unresolved placeholders %v seed=%q", meta.Unresolved, meta.Seed)
		e.recorder.RecordUnresolvedPlaceholders(len(meta.Unresolved))
	}
}

func pickedSummary(picked map[Role]string) string {
	parts := make([]string, 0, len(Roles))
	for _, role := range Roles {
		parts = append(parts, string(role)+"="+picked[role])
	}
	return strings.Join(parts, ",")
}

// fallbackAnswer is the minimal answer used if building panics.
func fallbackAnswer(in Input) Answer {
	text := AnchorPrefix + "지금의 마음을 천천히 들여다볼 시간이 필요해 보여.\n\n" +
		microQuestionPrefix + MicroQuestion(TopicUniversal, NeedReassurance)
	return Answer{
		Text: NormalizeSecondPerson(text, in.Name),
		Meta: Meta{
			Topic:     TopicUniversal,
			Emotion:   EmotionRelief,
			Need:      NeedReassurance,
			Intensity: 1,
			Tempo:     TempoPause,
			Persona:   universalPersona,
			Seed:      in.SeedKey,
			Picked:    map[Role]string{},
			BeliefOK:  true,
		},
	}
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		dup := false
		for _, existing := range dst {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, item)
		}
	}
	return dst
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *Engine
)

// BuildEmpathicAnswer answers in with a process-wide engine over the
// embedded corpus.
func BuildEmpathicAnswer(in Input) Answer {
	defaultEngineOnce.Do(func() {
		engine, err := NewEngine()
		if err == nil {
			defaultEngine = engine
		}
	})
	if defaultEngine == nil {
		return fallbackAnswer(in)
	}
	return defaultEngine.Answer(in)
}
