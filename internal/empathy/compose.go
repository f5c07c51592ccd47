package empathy

import (
	"strings"

	"soullab/internal/shared/textutil"
)

const (
	todayMoveTitle      = "오늘의 한 수"
	microQuestionPrefix = "질문 하나만 더: "
)

// slots are the six rendered parts in role order.
type slots map[Role]string

// compose lays the parts out in the fixed discourse order.
func compose(header string, s slots, body string, microQuestion string) string {
	lines := []string{
		header,
		s[RoleMirror],
		s[RoleValidate],
		"",
		body,
		"",
		s[RoleReframe],
		"",
		todayMoveTitle,
		"- " + s[RoleAction],
		"- " + s[RoleBoundary],
		"",
		s[RoleClosing],
		"",
		microQuestionPrefix + microQuestion,
	}
	return strings.Join(lines, "\n")
}

func headerLine(name string, persona Persona) string {
	prefix := ""
	if n := trimmed(name); n != "" {
		prefix = n + "님, "
	}
	if persona.Key == universalPersona.Key {
		return prefix + "오늘의 하늘 아래에서 지금의 흐름을 차분히 읽어볼게."
	}
	return prefix + persona.Zodiac + "의 " + persona.Trait + " 기운으로 오늘의 흐름을 읽어볼게."
}

// readingBody is the base reading block with the card sequence, or the
// card sequence alone when no reading was supplied.
func readingBody(cards []string, baseReading string) string {
	sequence := ""
	if len(cards) > 0 {
		sequence = "카드 흐름: " + strings.Join(cards, " → ")
	}
	if baseReading != "" {
		if sequence == "" {
			return "리딩 요약: " + baseReading
		}
		return "리딩 요약: " + baseReading + "\n" + sequence
	}
	if sequence != "" {
		return sequence
	}
	return "질문의 결을 따라 지금의 흐름을 짚어 볼게."
}

var microQuestions = map[Topic]map[Need]string{
	TopicLove: {
		NeedReassurance: "그 사람과 있을 때 가장 마음이 놓였던 순간은 언제였어?",
		NeedClarity:     "그 사람에게서 정말 확인하고 싶은 건 마음이야, 아니면 앞으로의 방향이야?",
		NeedAgency:      "이번 주에 그 사람에게 건넬 수 있는 가장 작은 한마디는 뭘까?",
		NeedBoundary:    "그 사람이 넘지 않았으면 하는 선을 한 줄로 적는다면 뭐야?",
		NeedClosure:     "이 관계에서 마지막으로 꼭 하고 싶은 말 한마디가 있다면 뭐야?",
	},
	TopicRelationship: {
		NeedReassurance: "요즘 너를 가장 편하게 해 주는 사람은 누구야?",
		NeedClarity:     "그 관계에서 네가 진짜 원하는 건 거리야, 아니면 대화야?",
		NeedBoundary:    "그 사람에게 '여기까지'라고 말하고 싶은 부분은 어디야?",
	},
	TopicCareer: {
		NeedReassurance: "최근에 일하면서 스스로 잘했다고 느낀 순간이 있었어?",
		NeedClarity:     "일에서 지키고 싶은 것과 바꾸고 싶은 것, 하나씩만 꼽는다면?",
		NeedAgency:      "지금 손댈 수 있는 일 중 가장 작은 건 뭐야?",
		NeedBoundary:    "일 때문에 미뤄 둔 것 중 되찾고 싶은 하나는 뭐야?",
	},
	TopicMoney: {
		NeedClarity: "돈 문제에서 지금 가장 불확실한 숫자 하나는 뭐야?",
		NeedAgency:  "이번 달 돈의 흐름에서 가장 먼저 바꾸고 싶은 한 가지는 뭐야?",
		NeedClosure: "정리하고 싶은 지출이나 약속이 있다면 어떤 거야?",
	},
	TopicTiming: {
		NeedReassurance: "기다리는 동안 너를 지켜 줄 작은 루틴 하나는 뭘까?",
		NeedClarity:     "기다리는 그때가 오면, 가장 먼저 하고 싶은 일은 뭐야?",
	},
	TopicSelf: {
		NeedReassurance: "오늘 너 자신에게 해 주고 싶은 다정한 말 한마디는 뭐야?",
		NeedAgency:      "이번 주에 너를 위해 해 볼 수 있는 작은 변화 하나는 뭐야?",
	},
}

var needQuestions = map[Need]string{
	NeedReassurance: "지금 마음을 가장 편하게 해 줄 한 가지는 뭘까?",
	NeedClarity:     "이 고민에서 가장 알고 싶은 한 가지를 고른다면 뭐야?",
	NeedAgency:      "오늘 안에 해 볼 수 있는 가장 작은 한 걸음은 뭐야?",
	NeedBoundary:    "지금 지키고 싶은 선 하나를 적는다면 뭐야?",
	NeedClosure:     "이 일을 마무리하려면 어떤 한마디가 필요할까?",
}

// MicroQuestion returns the follow-up question for topic and need. It is
// never empty.
func MicroQuestion(topic Topic, need Need) string {
	if q, ok := microQuestions[topic][need]; ok {
		return q
	}
	if q, ok := needQuestions[need]; ok {
		return q
	}
	return "지금 가장 마음에 걸리는 한 가지는 뭐야?"
}

// fatalismReplacer hedges absolutist wording. Longer forms come first so
// they win over their prefixes.
var fatalismReplacer = strings.NewReplacer(
	"운명이다", "흐름일 수 있다",
	"운명이야", "흐름일 수 있어",
	"무조건", "대체로",
	"반드시", "가능하면",
	"절대로", "되도록",
	"절대", "되도록",
	"100%", "상당 부분",
	"확실히", "아마도",
)

// SoftenFatalism replaces deterministic fortune claims with hedged wording.
func SoftenFatalism(text string) string {
	return fatalismReplacer.Replace(text)
}

// secondPersonForms maps a second-person form to the particle that follows
// "<name>님". Longer forms are listed first. A possessive form only matches
// before a space and a following word, so the answer "네," is untouched.
var secondPersonForms = []struct {
	form       string
	particle   string
	possessive bool
}{
	{form: "너라면", particle: "이라면"},
	{form: "너에게", particle: "께"},
	{form: "너한테", particle: "께"},
	{form: "너하고", particle: "하고"},
	{form: "너랑", particle: "이랑"},
	{form: "너와", particle: "과"},
	{form: "너는", particle: "은"},
	{form: "너도", particle: "도"},
	{form: "너만", particle: "만"},
	{form: "너를", particle: "을"},
	{form: "너의", particle: "의"},
	{form: "너가", particle: "이"},
	{form: "네가", particle: "이"},
	{form: "니가", particle: "이"},
	{form: "넌", particle: "은"},
	{form: "널", particle: "을"},
	{form: "네", particle: "의", possessive: true},
	{form: "너", particle: ""},
}

// stackedParticles may follow a matched form and are carried over as is,
// e.g. "너에게는" → "<name>님께는".
var stackedParticles = []string{"까지", "부터", "조차", "처럼", "보다", "만큼", "은", "는", "도", "만", "의"}

// NormalizeSecondPerson rewrites second-person forms into "<name>님" plus
// the matching particle. Trailing particles such as 는, 도 or 처럼 are kept
// ("너에게는" becomes "<name>님께는") and "네" followed by a noun becomes the
// possessive. A form only matches as a whole word, so words such as "너무"
// are untouched. Without a name the text is returned as is.
func NormalizeSecondPerson(text, name string) string {
	name = trimmed(name)
	if name == "" {
		return text
	}
	honorific := name + "님"

	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 16)
	for i := 0; i < len(runes); {
		if i == 0 || !textutil.IsHangul(runes[i-1]) {
			if form, particle, ok := matchSecondPerson(runes[i:]); ok {
				b.WriteString(honorific)
				b.WriteString(particle)
				i += form
				continue
			}
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func matchSecondPerson(rest []rune) (length int, particle string, ok bool) {
	for _, f := range secondPersonForms {
		form := []rune(f.form)
		if !hasRunePrefix(rest, form) {
			continue
		}
		n := len(form)
		if f.possessive {
			if len(rest) > n+1 && rest[n] == ' ' && textutil.IsHangul(rest[n+1]) {
				return n, f.particle, true
			}
			continue
		}
		suffix := f.particle
		for n < len(rest) && textutil.IsHangul(rest[n]) {
			stacked := matchStackedParticle(rest[n:])
			if stacked == "" {
				break
			}
			suffix += stacked
			n += len([]rune(stacked))
		}
		if n < len(rest) && textutil.IsHangul(rest[n]) {
			continue
		}
		return n, suffix, true
	}
	return 0, "", false
}

func matchStackedParticle(rest []rune) string {
	for _, p := range stackedParticles {
		if hasRunePrefix(rest, []rune(p)) {
			return p
		}
	}
	return ""
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}
