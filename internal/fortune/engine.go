package fortune

import (
	"fmt"
	"strings"
	"time"

	"soullab/internal/empathy"
	"soullab/internal/shared/logging"
)

const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100
)

var seoul = time.FixedZone("KST", 9*60*60)

// fallbackLucky is used when no matched rule carries a lucky pick.
var fallbackLucky = map[string]Lucky{
	"불":  {Color: "주황", Number: 1},
	"흙":  {Color: "베이지", Number: 4},
	"공기": {Color: "민트", Number: 3},
	"물":  {Color: "청록", Number: 2},
}

// Request asks for one person's fortune on one day.
type Request struct {
	Name      string        `json:"name,omitempty"`
	Birth     empathy.Birth `json:"birth"`
	Date      string        `json:"date,omitempty"` // YYYY-MM-DD, defaults to today in KST
	DayPeriod string        `json:"dayPeriod,omitempty"`
	Cards     []string      `json:"cards,omitempty"`
}

// Context is the flattened fact set rules are matched against.
type Context struct {
	Zodiac    string
	Element   string
	Modality  string
	Weekday   string
	DayPeriod string
	Cards     []string
	Month     int
	Day       int
}

// CategoryResult is the outcome for one category.
type CategoryResult struct {
	Category string   `json:"category"`
	Score    int      `json:"score"`
	Headline string   `json:"headline"`
	RuleID   string   `json:"ruleId,omitempty"`
	Matched  []string `json:"matched,omitempty"`
}

// Fortune is the evaluated daily fortune.
type Fortune struct {
	Date       string           `json:"date"`
	Persona    empathy.Persona  `json:"persona"`
	Seed       string           `json:"seed"`
	Categories []CategoryResult `json:"categories"`
	Lucky      Lucky            `json:"lucky"`
}

// Engine evaluates a ruleset. It is safe for concurrent use.
type Engine struct {
	rules  *Ruleset
	logger logging.Logger
	now    func() time.Time
}

// NewEngine returns an engine over rules, or the embedded ruleset when
// rules is nil.
func NewEngine(rules *Ruleset, logger logging.Logger) (*Engine, error) {
	if rules == nil {
		var err error
		rules, err = DefaultRuleset()
		if err != nil {
			return nil, fmt.Errorf("load embedded ruleset: %w", err)
		}
	}
	return &Engine{rules: rules, logger: logging.OrNop(logger), now: time.Now}, nil
}

// Evaluate resolves the request date and persona and scores every category.
func (e *Engine) Evaluate(req Request) (Fortune, error) {
	date, err := e.resolveDate(req.Date)
	if err != nil {
		return Fortune{}, err
	}
	persona := empathy.SunZodiac(req.Birth)
	ctx := Context{
		Zodiac:    persona.Key,
		Element:   persona.Element,
		Modality:  persona.Modality,
		Weekday:   strings.ToLower(date.Weekday().String()[:3]),
		DayPeriod: strings.TrimSpace(req.DayPeriod),
		Cards:     req.Cards,
		Month:     int(date.Month()),
		Day:       date.Day(),
	}
	seed := fmt.Sprintf("%s|%04d-%02d-%02d|%s", strings.TrimSpace(req.Name),
		req.Birth.Year, req.Birth.Month, req.Birth.Day, date.Format("2006-01-02"))

	out := e.EvaluateContext(ctx, seed)
	out.Date = date.Format("2006-01-02")
	out.Persona = persona
	return out, nil
}

// EvaluateContext scores ctx deterministically for seed.
func (e *Engine) EvaluateContext(ctx Context, seed string) Fortune {
	rng := empathy.NewRNG(seed)
	matched := make(map[string][]Rule, len(e.rules.Categories))
	var luckyPool []Lucky
	for _, r := range e.rules.Rules {
		if !r.When.Matches(ctx) {
			continue
		}
		matched[r.Category] = append(matched[r.Category], r)
		if r.Lucky != nil {
			luckyPool = append(luckyPool, *r.Lucky)
		}
	}

	out := Fortune{Seed: seed}
	for _, category := range e.rules.Categories {
		rules := matched[category]
		result := CategoryResult{Category: category, Score: baseScore}
		for _, r := range rules {
			result.Score += r.Score
			result.Matched = append(result.Matched, r.ID)
		}
		result.Score = clamp(result.Score)
		if headline, ok := pickHeadline(rules, rng); ok {
			result.Headline = headline.Text
			result.RuleID = headline.ID
		} else {
			result.Headline = e.rules.Defaults[category]
		}
		result.Headline = empathy.SoftenFatalism(result.Headline)
		out.Categories = append(out.Categories, result)
	}

	switch {
	case len(luckyPool) > 0:
		out.Lucky = luckyPool[rng.Intn(len(luckyPool))]
	default:
		out.Lucky = fallbackLucky[ctx.Element]
		if out.Lucky.Color == "" {
			out.Lucky = Lucky{Color: "흰색", Number: 7}
		}
	}
	e.logger.Debug("fortune seed=%q matched=%d", seed, len(luckyPool))
	return out
}

// pickHeadline prefers the highest scoring rule; equal scores are broken
// by the seeded RNG over the tied rules in rule order.
func pickHeadline(rules []Rule, rng *empathy.RNG) (Rule, bool) {
	if len(rules) == 0 {
		return Rule{}, false
	}
	best := rules[0].Score
	for _, r := range rules[1:] {
		if r.Score > best {
			best = r.Score
		}
	}
	var tied []Rule
	for _, r := range rules {
		if r.Score == best {
			tied = append(tied, r)
		}
	}
	if len(tied) == 1 {
		return tied[0], true
	}
	return tied[rng.Intn(len(tied))], true
}

func (e *Engine) resolveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return e.now().In(seoul), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, seoul)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return date, nil
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
