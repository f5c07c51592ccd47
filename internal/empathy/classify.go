package empathy

import "strings"

// keywordRule maps a set of keywords to a value. Rules are evaluated in
// order and the first match wins.
type keywordRule[T any] struct {
	value    T
	keywords []string
}

var topicRules = []keywordRule[Topic]{
	{TopicLove, []string{"연애", "사랑", "호감", "썸", "재회", "짝사랑", "남친", "여친", "남자친구", "여자친구", "고백", "연인", "결혼", "애인", "전남친", "전여친"}},
	{TopicMoney, []string{"돈", "재물", "금전", "투자", "주식", "코인", "대출", "월급", "연봉", "빚", "재정", "부동산", "적금"}},
	{TopicCareer, []string{"직장", "회사", "이직", "취업", "면접", "승진", "커리어", "업무", "시험", "합격", "진로", "퇴사", "사업", "프로젝트", "상사"}},
	{TopicRelationship, []string{"친구", "가족", "부모", "엄마", "아빠", "동료", "인간관계", "관계", "형제", "언니", "오빠", "누나", "동생"}},
	{TopicTiming, []string{"언제", "시기", "타이밍", "때가", "올해", "내년", "이번 달", "다음 달", "기다려", "몇 월"}},
	{TopicSelf, []string{"나 자신", "자존감", "성장", "내 마음", "자신감", "정체성", "건강", "우울", "나를", "나다운"}},
}

var emotionRules = []keywordRule[Emotion]{
	{EmotionAnger, []string{"화나", "화가", "짜증", "분노", "열받", "억울", "빡치"}},
	{EmotionAnxiety, []string{"불안", "걱정", "무서", "두려", "초조", "긴장", "겁나"}},
	{EmotionPressure, []string{"압박", "부담", "스트레스", "마감", "책임", "쫓기"}},
	{EmotionFrustration, []string{"답답", "막막", "안 풀", "안풀", "꽉 막", "제자리"}},
	{EmotionFatigue, []string{"지쳐", "지친", "피곤", "힘들", "번아웃", "무기력", "지침"}},
	{EmotionLoneliness, []string{"외로", "혼자", "고독", "쓸쓸"}},
	{EmotionLonging, []string{"그리워", "그립", "보고 싶", "보고싶", "생각나", "미련"}},
	{EmotionConfusion, []string{"헷갈", "모르겠", "혼란", "고민", "갈팡질팡", "애매"}},
	{EmotionHope, []string{"기대", "설레", "희망", "잘 될", "잘될", "바라"}},
	{EmotionRelief, []string{"다행", "안심", "편안", "괜찮아졌"}},
}

var escalationKeywords = []string{"너무", "진짜", "정말", "미치", "죽겠", "도저히", "한계", "절망", "최악", "매일", "계속", "!!"}

// needRules is the priority ladder applied before the emotion and topic
// fallbacks: boundary > closure > clarity > agency.
var needRules = []keywordRule[Need]{
	{NeedBoundary, []string{"선을", "선 긋", "선긋", "거절", "경계", "무례", "참아야", "차단", "선 넘", "선넘"}},
	{NeedClosure, []string{"끝내", "정리", "놓아", "잊고", "잊을", "마무리", "헤어져야", "그만", "손절"}},
	{NeedClarity, []string{"뭘까", "무엇", "왜", "어떤", "모르겠", "알고 싶", "알고싶", "궁금", "헷갈", "속마음"}},
	{NeedAgency, []string{"어떻게 하면", "방법", "해야 할", "해야할", "할까", "시작", "도전", "준비", "바꾸"}},
}

// InferTopic returns the first topic whose keywords appear in question.
func InferTopic(question string) Topic {
	return firstMatch(topicRules, question, TopicUniversal)
}

// InferEmotion returns the first emotion whose keywords appear in question.
func InferEmotion(question string) Emotion {
	return firstMatch(emotionRules, question, EmotionRelief)
}

// InferIntensity starts at 1 and adds one per escalation keyword, clamped to [1,3].
func InferIntensity(question string) int {
	q := normalizeQuestion(question)
	intensity := 1
	for _, kw := range escalationKeywords {
		if strings.Contains(q, kw) {
			intensity++
		}
	}
	return clampIntensity(intensity)
}

// InferNeed resolves the psychological need from explicit language first,
// then from the emotion, then from the topic.
func InferNeed(question string, topic Topic, emotion Emotion) Need {
	q := normalizeQuestion(question)
	for _, rule := range needRules {
		if containsAny(q, rule.keywords...) {
			return rule.value
		}
	}
	switch emotion {
	case EmotionAnxiety, EmotionLoneliness, EmotionFatigue, EmotionLonging:
		return NeedReassurance
	}
	switch topic {
	case TopicCareer, TopicMoney:
		return NeedAgency
	case TopicTiming:
		return NeedClarity
	}
	return NeedReassurance
}

func firstMatch[T any](rules []keywordRule[T], question string, fallback T) T {
	q := normalizeQuestion(question)
	if q == "" {
		return fallback
	}
	for _, rule := range rules {
		if containsAny(q, rule.keywords...) {
			return rule.value
		}
	}
	return fallback
}

func normalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clampIntensity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 3 {
		return 3
	}
	return v
}

// emotionCluster groups emotions that read alike: stress, heat, ache and light.
func emotionCluster(e Emotion) string {
	switch e {
	case EmotionAnxiety, EmotionPressure, EmotionConfusion:
		return "stress"
	case EmotionFrustration, EmotionAnger:
		return "heat"
	case EmotionFatigue, EmotionLoneliness, EmotionLonging:
		return "ache"
	case EmotionHope, EmotionRelief:
		return "light"
	}
	return ""
}
