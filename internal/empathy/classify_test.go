package empathy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferDefaultsOnUnmatchedText(t *testing.T) {
	for _, q := range []string{"", "   ", "abc xyz", "오늘 점심 메뉴"} {
		t.Run(q, func(t *testing.T) {
			topic := InferTopic(q)
			emotion := InferEmotion(q)
			assert.Equal(t, TopicUniversal, topic)
			assert.Equal(t, EmotionRelief, emotion)
			assert.Equal(t, 1, InferIntensity(q))
			assert.Equal(t, NeedReassurance, InferNeed(q, topic, emotion))
		})
	}
}

func TestInferTopic(t *testing.T) {
	tests := []struct {
		question string
		want     Topic
	}{
		{"전남친이랑 재회할 수 있을까?", TopicLove},
		{"썸 타는 사람이 있는데 회사 동료야", TopicLove},
		{"주식 투자를 계속해도 될까", TopicMoney},
		{"이직 준비 중인데 면접이 걱정돼", TopicCareer},
		{"엄마랑 자꾸 싸워", TopicRelationship},
		{"언제쯤 좋은 일이 생길까", TopicTiming},
		{"자존감이 너무 낮아", TopicSelf},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTopic(tt.question))
		})
	}
}

func TestInferEmotion(t *testing.T) {
	tests := []struct {
		question string
		want     Emotion
	}{
		{"상사 때문에 너무 화가 나", EmotionAnger},
		{"결과가 나올 때까지 불안해", EmotionAnxiety},
		{"마감 압박이 심해", EmotionPressure},
		{"일이 안 풀려서 답답해", EmotionFrustration},
		{"요즘 너무 지쳐", EmotionFatigue},
		{"주말마다 혼자라 외로워", EmotionLoneliness},
		{"그 사람이 자꾸 생각나", EmotionLonging},
		{"어떤 선택을 해야 할지 헷갈려", EmotionConfusion},
		{"새 프로젝트가 설레", EmotionHope},
		{"시험 끝나서 다행이야", EmotionRelief},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, InferEmotion(tt.question))
		})
	}
}

func TestInferIntensityClamps(t *testing.T) {
	assert.Equal(t, 1, InferIntensity("괜찮을까"))
	assert.Equal(t, 2, InferIntensity("너무 불안해"))
	assert.Equal(t, 3, InferIntensity("진짜 너무 정말 미치겠어 죽겠어!!"))
}

func TestInferNeedLadder(t *testing.T) {
	tests := []struct {
		name     string
		question string
		topic    Topic
		emotion  Emotion
		want     Need
	}{
		{"boundary beats closure", "선을 긋고 정리하고 싶어", TopicLove, EmotionAnger, NeedBoundary},
		{"closure beats clarity", "왜 이 관계를 정리 못할까", TopicRelationship, EmotionConfusion, NeedClosure},
		{"clarity beats agency", "그 사람 속마음이 궁금한데 어떻게 하면 알까", TopicLove, EmotionConfusion, NeedClarity},
		{"agency", "어떻게 하면 승진할 수 있을까", TopicCareer, EmotionHope, NeedAgency},
		{"emotion reassurance", "그냥 외로워", TopicUniversal, EmotionLoneliness, NeedReassurance},
		{"career default", "회사 일이 많아", TopicCareer, EmotionRelief, NeedAgency},
		{"timing default", "다음 달은 어때", TopicTiming, EmotionRelief, NeedClarity},
		{"fallback", "", TopicUniversal, EmotionRelief, NeedReassurance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferNeed(tt.question, tt.topic, tt.emotion))
		})
	}
}

func TestResolveTempo(t *testing.T) {
	tests := []struct {
		topic     Topic
		need      Need
		intensity int
		want      Tempo
	}{
		{TopicCareer, NeedReassurance, 3, TempoPause},
		{TopicMoney, NeedClosure, 1, TempoPause},
		{TopicLove, NeedAgency, 2, TempoPush},
		{TopicLove, NeedAgency, 1, TempoBalanced},
		{TopicCareer, NeedClarity, 3, TempoBalanced},
		{TopicSelf, NeedBoundary, 3, TempoPush},
		{TopicSelf, NeedBoundary, 1, TempoBalanced},
		{TopicMoney, Need(""), 1, TempoPush},
		{TopicLove, Need(""), 1, TempoPause},
	}
	for _, tt := range tests {
		t.Run(string(tt.topic)+"/"+string(tt.need), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTempo(tt.topic, tt.need, tt.intensity))
		})
	}
}
