package empathy

import (
	"strconv"
	"strings"
)

// placeholderDefaults gives every known placeholder a context-free value,
// so a part chosen without its optional input still reads naturally.
var placeholderDefaults = map[string]string{
	"name":        "너",
	"emotionWord": "마음",
	"topicWord":   "지금의 고민",
	"card1":       "첫 번째",
	"card2":       "두 번째",
	"card3":       "세 번째",
	"weather":     "어떤 날씨",
	"dayPeriod":   "이 시간",
	"location":    "지금 있는 자리",
	"zodiac":      universalPersona.Zodiac,
	"trait":       universalPersona.Trait,
	"motive":      universalPersona.Motive,
	"element":     "별",
}

// Every emotion word ends in a final consonant so templates can use a
// fixed particle after it.
var emotionWords = map[Emotion]string{
	EmotionAnxiety:     "불안감",
	EmotionPressure:    "부담감",
	EmotionConfusion:   "혼란스러움",
	EmotionFrustration: "답답함",
	EmotionAnger:       "억울함",
	EmotionFatigue:     "지침",
	EmotionLoneliness:  "외로움",
	EmotionLonging:     "그리움",
	EmotionHope:        "기대감",
	EmotionRelief:      "안도감",
}

var topicWords = map[Topic]string{
	TopicLove:         "연애",
	TopicRelationship: "관계",
	TopicSelf:         "나 자신",
	TopicCareer:       "일",
	TopicMoney:        "돈",
	TopicTiming:       "타이밍",
	TopicUniversal:    "지금의 고민",
}

// Render substitutes {key} tokens from vars. Keys missing from vars are
// left verbatim and reported in unresolved, in order of first appearance.
func Render(template string, vars map[string]string) (out string, unresolved []string) {
	seen := make(map[string]bool)
	out = placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		if !seen[key] {
			seen[key] = true
			unresolved = append(unresolved, key)
		}
		return token
	})
	return out, unresolved
}

// renderVars builds the flat placeholder context for one answer. Defaults
// are laid down first and overwritten by whatever the input supplies.
func renderVars(in Input, persona Persona, topic Topic, emotion Emotion) map[string]string {
	vars := make(map[string]string, len(placeholderDefaults)+4)
	for k, v := range placeholderDefaults {
		vars[k] = v
	}
	if name := trimmed(in.Name); name != "" {
		vars["name"] = name + "님"
	}
	if w, ok := emotionWords[emotion]; ok {
		vars["emotionWord"] = w
	}
	if w, ok := topicWords[topic]; ok {
		vars["topicWord"] = w
	}
	for i, card := range nonEmpty(in.Cards) {
		vars["card"+strconv.Itoa(i+1)] = card
	}
	setIf(vars, "weather", in.Env.Weather)
	setIf(vars, "dayPeriod", in.Env.DayPeriod)
	setIf(vars, "location", in.Env.Location)
	setIf(vars, "zodiac", persona.Zodiac)
	setIf(vars, "trait", persona.Trait)
	setIf(vars, "motive", persona.Motive)
	setIf(vars, "element", persona.Element)
	return vars
}

func setIf(vars map[string]string, key, value string) {
	if v := trimmed(value); v != "" {
		vars[key] = v
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := trimmed(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
