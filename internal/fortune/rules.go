// Package fortune evaluates the declarative daily fortune ruleset: every
// rule whose conditions match adds its score to a category, and each
// category's headline is picked by score with a seeded tie-break.
package fortune

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"soullab/internal/empathy"
)

//go:embed rules/daily.yaml
var embeddedRules []byte

// Condition narrows when a rule applies. Empty fields match everything.
type Condition struct {
	Zodiac    []string `yaml:"zodiac,omitempty" json:"zodiac,omitempty"`
	Element   []string `yaml:"element,omitempty" json:"element,omitempty"`
	Modality  []string `yaml:"modality,omitempty" json:"modality,omitempty"`
	Weekday   []string `yaml:"weekday,omitempty" json:"weekday,omitempty"`
	DayPeriod []string `yaml:"dayPeriod,omitempty" json:"dayPeriod,omitempty"`
	CardsAny  []string `yaml:"cardsAny,omitempty" json:"cardsAny,omitempty"`
	Months    []int    `yaml:"months,omitempty" json:"months,omitempty"`
	Days      []int    `yaml:"days,omitempty" json:"days,omitempty"`
}

// Lucky is an optional lucky color and number attached to a rule.
type Lucky struct {
	Color  string `yaml:"color" json:"color"`
	Number int    `yaml:"number" json:"number"`
}

// Rule is one declarative fortune rule.
type Rule struct {
	ID       string    `yaml:"id" json:"id"`
	Category string    `yaml:"category" json:"category"`
	When     Condition `yaml:"when" json:"when"`
	Score    int       `yaml:"score" json:"score"`
	Text     string    `yaml:"text" json:"text"`
	Lucky    *Lucky    `yaml:"lucky,omitempty" json:"lucky,omitempty"`
}

// Ruleset is the parsed rule file.
type Ruleset struct {
	Version    int               `yaml:"version"`
	Categories []string          `yaml:"categories"`
	Defaults   map[string]string `yaml:"defaults"`
	Rules      []Rule            `yaml:"rules"`
}

var validWeekdays = map[string]bool{"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true}

var (
	defaultRulesOnce sync.Once
	defaultRules     *Ruleset
	defaultRulesErr  error
)

// DefaultRuleset returns the embedded ruleset, parsed once per process.
func DefaultRuleset() (*Ruleset, error) {
	defaultRulesOnce.Do(func() {
		defaultRules, defaultRulesErr = ParseRuleset(embeddedRules)
	})
	return defaultRules, defaultRulesErr
}

// LoadRulesetFile reads and validates a ruleset from disk.
func LoadRulesetFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	return ParseRuleset(data)
}

// ParseRuleset parses and validates a YAML ruleset.
func ParseRuleset(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse ruleset: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks categories, ids, weekdays and rule text.
func (rs *Ruleset) Validate() error {
	if len(rs.Categories) == 0 {
		return fmt.Errorf("ruleset has no categories")
	}
	categories := make(map[string]bool, len(rs.Categories))
	for _, c := range rs.Categories {
		categories[c] = true
	}
	var problems []string
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		label := r.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			problems = append(problems, label+": missing id")
		}
		if seen[r.ID] {
			problems = append(problems, label+": duplicate id")
		}
		seen[r.ID] = true
		if !categories[r.Category] {
			problems = append(problems, fmt.Sprintf("%s: unknown category %q", label, r.Category))
		}
		for _, d := range r.When.Weekday {
			if !validWeekdays[d] {
				problems = append(problems, fmt.Sprintf("%s: unknown weekday %q", label, d))
			}
		}
		if strings.TrimSpace(r.Text) == "" {
			problems = append(problems, label+": empty text")
		}
		if terms := empathy.FindBeliefViolations(r.Text); len(terms) > 0 {
			problems = append(problems, fmt.Sprintf("%s: disallowed terms %v", label, terms))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid ruleset: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Matches reports whether every non-empty condition holds for ctx.
func (c Condition) Matches(ctx Context) bool {
	return matchString(c.Zodiac, ctx.Zodiac) &&
		matchString(c.Element, ctx.Element) &&
		matchString(c.Modality, ctx.Modality) &&
		matchString(c.Weekday, ctx.Weekday) &&
		matchString(c.DayPeriod, ctx.DayPeriod) &&
		matchAnyCard(c.CardsAny, ctx.Cards) &&
		matchInt(c.Months, ctx.Month) &&
		matchInt(c.Days, ctx.Day)
}

func matchString(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return true
		}
	}
	return false
}

func matchAnyCard(allowed, cards []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, card := range cards {
		if matchString(allowed, strings.TrimSpace(card)) {
			return true
		}
	}
	return false
}

func matchInt(allowed []int, value int) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
