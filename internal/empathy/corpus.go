package empathy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/parts.yaml
var embeddedCorpus []byte

// corpusFile is the authored YAML layout: named groups plus families that
// expand across topics and emotions.
type corpusFile struct {
	Version  int                 `yaml:"version"`
	Groups   map[string][]string `yaml:"groups"`
	Families []partFamily        `yaml:"families"`
}

type partFamily struct {
	ID        string   `yaml:"id"`
	Role      Role     `yaml:"role"`
	Need      Need     `yaml:"need"`
	Style     Style    `yaml:"style"`
	Intensity int      `yaml:"intensity"`
	Topics    []string `yaml:"topics"`
	Emotions  []string `yaml:"emotions"`
	Text      string   `yaml:"text"`
}

type partKey struct {
	role    Role
	topic   Topic
	emotion Emotion
}

// partFeatures caches everything the selector derives from a part's text,
// so scoring a request does no regex work.
type partFeatures struct {
	placeholders []string
	ctxKinds     []string
	maxCard      int
	pushLang     bool
	pauseLang    bool
	needHint     map[Need]int
}

// Corpus is the immutable, indexed set of phrase parts. It is safe for
// concurrent use once loaded.
type Corpus struct {
	parts    []Part
	features []partFeatures
	byRole   map[Role][]int
	byKey    map[partKey][]int
	byID     map[string]int
	report   ValidationReport
}

// ValidationIssue is a single corpus finding.
type ValidationIssue struct {
	ID      string
	Message string
}

// ValidationReport summarizes corpus validation findings. Errors block
// loading; warnings describe coverage gaps that degrade selection.
type ValidationReport struct {
	Parts    int
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether the report contains blocking errors.
func (r ValidationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidationError wraps a report with blocking errors.
type ValidationError struct {
	Report ValidationReport
}

func (e *ValidationError) Error() string {
	if len(e.Report.Errors) == 0 {
		return "corpus validation failed"
	}
	first := e.Report.Errors[0]
	if extra := len(e.Report.Errors) - 1; extra > 0 {
		return fmt.Sprintf("corpus validation failed: %s: %s (and %d more)", first.ID, first.Message, extra)
	}
	return fmt.Sprintf("corpus validation failed: %s: %s", first.ID, first.Message)
}

var (
	defaultCorpusOnce sync.Once
	defaultCorpus     *Corpus
	defaultCorpusErr  error
)

// DefaultCorpus returns the embedded corpus, loading it once per process.
func DefaultCorpus() (*Corpus, error) {
	defaultCorpusOnce.Do(func() {
		defaultCorpus, defaultCorpusErr = LoadCorpus(embeddedCorpus)
	})
	return defaultCorpus, defaultCorpusErr
}

// LoadCorpusFile loads a corpus from a YAML file on disk.
func LoadCorpusFile(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return LoadCorpus(data)
}

// LoadCorpus parses, expands, validates and indexes a YAML corpus.
func LoadCorpus(data []byte) (*Corpus, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	parts, issues := expandFamilies(file)
	c := newCorpus(parts)
	c.report.Errors = append(issues, c.report.Errors...)
	if c.report.HasErrors() {
		return nil, &ValidationError{Report: c.report}
	}
	return c, nil
}

// NewCorpus indexes parts directly. Invalid parts are reported, not dropped.
func NewCorpus(parts []Part) *Corpus {
	return newCorpus(parts)
}

func newCorpus(parts []Part) *Corpus {
	c := &Corpus{
		parts:    make([]Part, len(parts)),
		features: make([]partFeatures, len(parts)),
		byRole:   make(map[Role][]int),
		byKey:    make(map[partKey][]int),
		byID:     make(map[string]int, len(parts)),
	}
	copy(c.parts, parts)
	for i, p := range c.parts {
		c.features[i] = analyzePart(p)
		c.byRole[p.Role] = append(c.byRole[p.Role], i)
		key := partKey{p.Role, p.Topic, p.Emotion}
		c.byKey[key] = append(c.byKey[key], i)
		if _, dup := c.byID[p.ID]; !dup {
			c.byID[p.ID] = i
		}
	}
	c.report = c.validate()
	return c
}

func expandFamilies(file corpusFile) ([]Part, []ValidationIssue) {
	var (
		parts  []Part
		issues []ValidationIssue
	)
	resolve := func(family string, refs []string) []string {
		var out []string
		for _, ref := range refs {
			if name, ok := strings.CutPrefix(ref, "@"); ok {
				group, found := file.Groups[name]
				if !found {
					issues = append(issues, ValidationIssue{ID: family, Message: fmt.Sprintf("unknown group %q", name)})
					continue
				}
				out = append(out, group...)
				continue
			}
			out = append(out, ref)
		}
		return out
	}
	for _, fam := range file.Families {
		if strings.TrimSpace(fam.ID) == "" {
			issues = append(issues, ValidationIssue{ID: "family", Message: "family without id"})
			continue
		}
		for _, topic := range resolve(fam.ID, fam.Topics) {
			for _, emotion := range resolve(fam.ID, fam.Emotions) {
				parts = append(parts, Part{
					ID:        fmt.Sprintf("%s-%s-%s", fam.ID, topic, emotion),
					Role:      fam.Role,
					Topic:     Topic(topic),
					Emotion:   Emotion(emotion),
					Need:      fam.Need,
					Intensity: fam.Intensity,
					Style:     fam.Style,
					Text:      fam.Text,
				})
			}
		}
	}
	return parts, issues
}

func (c *Corpus) validate() ValidationReport {
	report := ValidationReport{Parts: len(c.parts)}
	seen := make(map[string]struct{}, len(c.parts))
	for i, p := range c.parts {
		add := func(msg string, args ...any) {
			report.Errors = append(report.Errors, ValidationIssue{ID: p.ID, Message: fmt.Sprintf(msg, args...)})
		}
		if p.ID == "" {
			add("empty id")
		} else if _, dup := seen[p.ID]; dup {
			add("duplicate id")
		}
		seen[p.ID] = struct{}{}
		if !oneOf(p.Role, Roles) {
			add("unknown role %q", p.Role)
		}
		if !oneOf(p.Topic, Topics) {
			add("unknown topic %q", p.Topic)
		}
		if !oneOf(p.Emotion, Emotions) {
			add("unknown emotion %q", p.Emotion)
		}
		if !oneOf(p.Need, Needs) {
			add("unknown need %q", p.Need)
		}
		if p.Style != StyleDirect && p.Style != StyleSoft {
			add("unknown style %q", p.Style)
		}
		if p.Intensity < 1 || p.Intensity > 3 {
			add("intensity %d outside 1-3", p.Intensity)
		}
		if strings.TrimSpace(p.Text) == "" {
			add("empty text")
		}
		for _, term := range FindBeliefViolations(p.Text) {
			add("disallowed term %q", term)
		}
		for _, key := range c.features[i].placeholders {
			if _, known := placeholderDefaults[key]; !known {
				add("unknown placeholder {%s}", key)
			}
		}
	}
	for _, role := range Roles {
		if len(c.byRole[role]) == 0 {
			report.Errors = append(report.Errors, ValidationIssue{ID: string(role), Message: "role has no parts"})
			continue
		}
		for _, topic := range Topics {
			for _, emotion := range Emotions {
				if len(c.byKey[partKey{role, topic, emotion}]) == 0 {
					report.Warnings = append(report.Warnings, ValidationIssue{
						ID:      fmt.Sprintf("%s/%s/%s", role, topic, emotion),
						Message: "no exact candidate; selection falls back to scoring the whole role",
					})
				}
			}
		}
	}
	return report
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Len returns the number of parts.
func (c *Corpus) Len() int { return len(c.parts) }

// Report returns the validation report computed at load time.
func (c *Corpus) Report() ValidationReport { return c.report }

// Get returns the part with id.
func (c *Corpus) Get(id string) (Part, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Part{}, false
	}
	return c.parts[idx], true
}

// ByRole returns the parts of role in corpus order.
func (c *Corpus) ByRole(role Role) []Part {
	idxs := c.byRole[role]
	out := make([]Part, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.parts[i])
	}
	return out
}

// Candidates returns the parts that exactly match role, topic and emotion.
func (c *Corpus) Candidates(role Role, topic Topic, emotion Emotion) []Part {
	idxs := c.byKey[partKey{role, topic, emotion}]
	out := make([]Part, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.parts[i])
	}
	return out
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

var (
	pushPattern  = regexp.MustCompile(`지금 바로|당장|밀어붙|시작해|결정해|움직일|실행`)
	pausePattern = regexp.MustCompile(`멈춰|쉬어|천천히|숨을|잠시|기다려|보류`)
)

// needHints is the thematic phrasing that suits a need even when a part is
// tagged with another one. Strong matches score 2, weak ones 1.
var needHints = map[Need]struct{ strong, weak *regexp.Regexp }{
	NeedReassurance: {regexp.MustCompile(`괜찮|충분|자격|버텨|칭찬`), regexp.MustCompile(`천천히|따뜻|숨`)},
	NeedClarity:     {regexp.MustCompile(`사실|정리|한 줄|적어 봐|알아보`), regexp.MustCompile(`흐름|방향|나침반`)},
	NeedAgency:      {regexp.MustCompile(`시작|한 걸음|골라|정해 봐|움직`), regexp.MustCompile(`힘|연료|준비`)},
	NeedBoundary:    {regexp.MustCompile(`선을|않기|멈추기|불편해|지키`), regexp.MustCompile(`기준|한계`)},
	NeedClosure:     {regexp.MustCompile(`끝난|놓는|내려놓|여기까지|다음 장`), regexp.MustCompile(`기억|페이지|한 장`)},
}

func analyzePart(p Part) partFeatures {
	f := partFeatures{needHint: make(map[Need]int)}
	seen := make(map[string]bool)
	kinds := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(p.Text, -1) {
		key := m[1]
		if !seen[key] {
			seen[key] = true
			f.placeholders = append(f.placeholders, key)
		}
		if n, ok := cardIndex(key); ok && n > f.maxCard {
			f.maxCard = n
		}
		if kind := contextKind(key); kind != "" && !kinds[kind] {
			kinds[kind] = true
			f.ctxKinds = append(f.ctxKinds, kind)
		}
	}
	f.pushLang = pushPattern.MatchString(p.Text)
	f.pauseLang = pausePattern.MatchString(p.Text)
	for need, hint := range needHints {
		switch {
		case hint.strong.MatchString(p.Text):
			f.needHint[need] = 2
		case hint.weak.MatchString(p.Text):
			f.needHint[need] = 1
		}
	}
	return f
}

// cardIndex parses {cardN} placeholders.
func cardIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "card")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// contextKind groups placeholders that depend on optional caller input.
func contextKind(key string) string {
	switch {
	case key == "name":
		return "name"
	case strings.HasPrefix(key, "card"):
		return "card"
	case key == "weather", key == "dayPeriod", key == "location":
		return key
	}
	return ""
}
