package empathy

import (
	"regexp"
	"sort"
	"strings"

	"soullab/internal/shared/textutil"
)

// MaxBaseReadingRunes caps caller supplied reading text.
const MaxBaseReadingRunes = 700

// AnchorPrefix is prepended when nothing ties the answer to tarot or
// Western astrology.
const AnchorPrefix = "타로 리딩 기준으로, "

// disallowedTerms lies outside the Tarot + Western-astrology frame: saju,
// shinsal, yin-yang and five elements, physiognomy, feng shui, talismans,
// shamanic ritual and past-life or curse language.
var disallowedTerms = []string{
	"사주", "팔자", "만세력", "신살", "도화살", "역마살", "백호살", "천간", "대운", "궁합",
	"음양", "오행", "관상", "풍수", "부적", "굿판", "무당", "신내림", "살풀이", "액막이",
	"전생", "저주",
	"saju", "feng shui", "five elements", "yin-yang", "yin yang",
}

// beliefExemptions are ordinary words that start with a disallowed term.
var beliefExemptions = []string{"부적절", "부적합", "부적응"}

var anchorVocabulary = append([]string{"타로", "카드", "별자리", "운세", "리딩", "점성", "행성"}, zodiacNames()...)

var beliefPattern = func() *regexp.Regexp {
	terms := append([]string(nil), disallowedTerms...)
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}()

// BeliefReport is the result of ValidateBeliefSystem.
type BeliefReport struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations,omitempty"`
	Anchored   bool     `json:"anchored"`
}

// ValidateBeliefSystem checks text for disallowed terms and reports whether
// it is anchored to tarot or astrology by cards, a base reading or its
// own vocabulary.
func ValidateBeliefSystem(text string, hasCards, hasBaseReading bool) BeliefReport {
	violations := FindBeliefViolations(text)
	return BeliefReport{
		OK:         len(violations) == 0,
		Violations: violations,
		Anchored:   hasCards || hasBaseReading || containsAny(text, anchorVocabulary...),
	}
}

// FindBeliefViolations returns the distinct disallowed terms in text, in
// the order they are listed, lowercased.
func FindBeliefViolations(text string) []string {
	found := make(map[string]bool)
	for _, loc := range beliefMatches(text) {
		found[strings.ToLower(text[loc[0]:loc[1]])] = true
	}
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, term := range disallowedTerms {
		if found[term] {
			out = append(out, term)
		}
	}
	return out
}

// SanitizeBaseReading strips disallowed terms from an untrusted reading,
// collapses whitespace and caps the length at MaxBaseReadingRunes. Each
// removed term leaves a space so the remaining pieces cannot join into a
// new term.
func SanitizeBaseReading(text string) string {
	return sanitizeBaseReading(text, MaxBaseReadingRunes)
}

func sanitizeBaseReading(text string, maxRunes int) string {
	matches := beliefMatches(text)
	var b strings.Builder
	last := 0
	for _, loc := range matches {
		b.WriteString(text[last:loc[0]])
		b.WriteByte(' ')
		last = loc[1]
	}
	b.WriteString(text[last:])
	return textutil.TruncateWithEllipsis(textutil.CollapseSpace(b.String()), maxRunes)
}

func beliefMatches(text string) [][]int {
	all := beliefPattern.FindAllStringIndex(text, -1)
	out := all[:0]
	for _, loc := range all {
		if isExempt(text[loc[0]:]) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func isExempt(rest string) bool {
	for _, word := range beliefExemptions {
		if strings.HasPrefix(rest, word) {
			return true
		}
	}
	return false
}
