package empathy

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, seoul)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	engine, err := NewEngine(opts...)
	require.NoError(t, err)
	return engine
}

func sampleInput() Input {
	return Input{
		Name:     "민지",
		Birth:    Birth{Year: 1994, Month: 8, Day: 2},
		Question: "헤어진 사람이 너무 보고 싶은데 재회할 수 있을까요?",
		Cards:    []string{"The Lovers", "Five of Cups", "The Star"},
		Env:      Env{Weather: "비", DayPeriod: "저녁", Location: "서울"},
	}
}

func TestAnswerIsDeterministicForSeed(t *testing.T) {
	engine := newTestEngine(t)
	in := sampleInput()
	in.SeedKey = "qa-seed-1"

	first := engine.Answer(in)
	second := engine.Answer(in)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Meta, second.Meta)
	assert.Equal(t, "qa-seed-1", first.Meta.Seed)

	other := newTestEngine(t, WithClock(func() time.Time { return fixedNow.AddDate(1, 0, 0) }))
	assert.Equal(t, first.Text, other.Answer(in).Text, "explicit seed ignores the clock")

	viaPackage := BuildEmpathicAnswer(in)
	assert.Equal(t, first.Text, viaPackage.Text)
}

func TestDefaultSeedChangesAcrossDays(t *testing.T) {
	engine := newTestEngine(t)
	in := sampleInput()
	in.Env.Timestamp = fixedNow.UnixMilli()
	today := engine.Answer(in)
	again := engine.Answer(in)
	in.Env.Timestamp = fixedNow.AddDate(0, 0, 1).UnixMilli()
	tomorrow := engine.Answer(in)

	assert.Equal(t, today.Text, again.Text)
	assert.NotEqual(t, today.Meta.Seed, tomorrow.Meta.Seed)
	assert.True(t, strings.HasSuffix(today.Meta.Seed, "|2026-03-02"))
}

func TestAnswerRewritesSecondPerson(t *testing.T) {
	engine := newTestEngine(t)
	questions := []string{
		"", "재회할 수 있을까", "회사 상사 때문에 너무 화가 나", "요즘 너무 지쳐",
		"돈 문제로 불안해", "언제쯤 좋은 소식이 올까", "자존감이 낮아서 힘들어", "친구랑 선을 긋고 싶어",
	}
	for i, q := range questions {
		for s := 0; s < 10; s++ {
			in := sampleInput()
			in.Question = q
			in.SeedKey = fmt.Sprintf("p2-%d-%d", i, s)
			out := engine.Answer(in)
			require.Contains(t, out.Text, "민지님", in.SeedKey)
			require.NotContains(t, out.Text, "너는", in.SeedKey)
		}
	}
}

func TestAnswerWithCardsIsBeliefClean(t *testing.T) {
	engine := newTestEngine(t)
	out := engine.Answer(sampleInput())
	assert.True(t, out.Meta.BeliefOK)
	assert.Nil(t, out.Meta.BeliefViolations)
	assert.True(t, out.Meta.Anchored)
	assert.Contains(t, out.Text, "질문 하나만 더:")
	assert.Contains(t, out.Text, "카드 흐름: The Lovers → Five of Cups → The Star")
	assert.False(t, strings.HasPrefix(out.Text, AnchorPrefix))
}

func TestAnswerStripsDisallowedBaseReading(t *testing.T) {
	engine := newTestEngine(t)
	in := sampleInput()
	in.BaseReading = "사주로 보면 올해는 도화살이 있어 인연이 들어오는 흐름이에요."
	out := engine.Answer(in)

	assert.False(t, out.Meta.BeliefOK)
	assert.Equal(t, []string{"사주", "도화살"}, out.Meta.BeliefViolations)
	assert.NotContains(t, out.Text, "사주")
	assert.NotContains(t, out.Text, "도화살")
	assert.Contains(t, out.Text, "리딩 요약: 로 보면 올해는 이 있어 인연이 들어오는 흐름이에요.")

	in.BaseReading = "사사주주 흐름"
	out = engine.Answer(in)
	assert.Equal(t, []string{"사주"}, out.Meta.BeliefViolations)
	assert.NotContains(t, out.Text, "사주")
	assert.Empty(t, FindBeliefViolations(out.Text))
}

func TestAnswerPicksSixDistinctParts(t *testing.T) {
	engine := newTestEngine(t)
	for s := 0; s < 50; s++ {
		in := sampleInput()
		in.SeedKey = fmt.Sprintf("roles-%d", s)
		out := engine.Answer(in)
		require.Len(t, out.Meta.Picked, len(Roles))
		seen := make(map[string]bool)
		for _, role := range Roles {
			id, ok := out.Meta.Picked[role]
			require.True(t, ok, role)
			part, found := engine.Corpus().Get(id)
			require.True(t, found, id)
			require.Equal(t, role, part.Role)
			require.False(t, seen[id], id)
			seen[id] = true
		}
	}
}

func TestAnswerDefaultsOnUnmatchedQuestion(t *testing.T) {
	engine := newTestEngine(t)
	out := engine.Answer(Input{Question: "abc"})
	assert.Equal(t, TopicUniversal, out.Meta.Topic)
	assert.Equal(t, EmotionRelief, out.Meta.Emotion)
	assert.Equal(t, 1, out.Meta.Intensity)
	assert.Equal(t, NeedReassurance, out.Meta.Need)
	assert.Equal(t, TempoPause, out.Meta.Tempo)
}

func TestAnswerNeverPanicsOnSparseInput(t *testing.T) {
	engine := newTestEngine(t)
	inputs := []Input{
		{},
		{Birth: Birth{Year: 1990, Month: 2, Day: 30}},
		{Birth: Birth{Year: 3000, Month: 1, Day: 1, Calendar: CalendarLunar, LeapMonth: true}},
		{Cards: []string{"", "  "}},
		{Style: Style("loud"), Env: Env{Timestamp: -5}},
		{BaseReading: "   "},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			var out Answer
			require.NotPanics(t, func() { out = engine.Answer(in) })
			assert.NotEmpty(t, out.Text)
			assert.Contains(t, out.Text, "질문 하나만 더:")
			assert.Len(t, out.Meta.Picked, len(Roles))
			if !out.Meta.Anchored {
				assert.True(t, strings.HasPrefix(out.Text, AnchorPrefix))
			}
		})
	}
	require.NotPanics(t, func() { BuildEmpathicAnswer(Input{}) })
}

func TestAnswerLayout(t *testing.T) {
	engine := newTestEngine(t)
	out := engine.Answer(sampleInput())
	lines := strings.Split(out.Text, "\n")
	require.Len(t, lines, 15)

	assert.True(t, strings.HasPrefix(lines[0], "민지님, 사자자리의"))
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "카드 흐름: The Lovers → Five of Cups → The Star", lines[4])
	assert.Equal(t, "오늘의 한 수", lines[8])
	assert.True(t, strings.HasPrefix(lines[9], "- "))
	assert.True(t, strings.HasPrefix(lines[10], "- "))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "질문 하나만 더: "))
	assert.Empty(t, out.Meta.Unresolved)
}

func TestAnswerUsesStyleHintOrPersonaTone(t *testing.T) {
	engine := newTestEngine(t)
	in := sampleInput() // Leo, a fire sign
	assert.Equal(t, StyleDirect, engine.Answer(in).Meta.Style)
	in.Style = StyleSoft
	assert.Equal(t, StyleSoft, engine.Answer(in).Meta.Style)
}

type recordingRecorder struct {
	mu         sync.Mutex
	answers    int
	violations map[string]int
}

func (r *recordingRecorder) RecordAnswer(string, string, string, time.Duration) {
	r.mu.Lock()
	r.answers++
	r.mu.Unlock()
}

func (r *recordingRecorder) RecordBeliefViolations(source string, count int) {
	r.mu.Lock()
	if r.violations == nil {
		r.violations = make(map[string]int)
	}
	r.violations[source] += count
	r.mu.Unlock()
}

func (r *recordingRecorder) RecordUnresolvedPlaceholders(int) {}

func TestAnswerIsSafeForConcurrentUse(t *testing.T) {
	rec := &recordingRecorder{}
	engine := newTestEngine(t, WithRecorder(rec))
	in := sampleInput()
	in.SeedKey = "concurrent"
	in.BaseReading = "사주 이야기"
	want := engine.Answer(in).Text

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, engine.Answer(in).Text)
		}()
	}
	wg.Wait()
	assert.Equal(t, 17, rec.answers)
	assert.Equal(t, 17, rec.violations["base_reading"])
	assert.Zero(t, rec.violations["generated"])
}

func TestAnswerHonorsTunables(t *testing.T) {
	in := sampleInput()
	in.BaseReading = "연인 카드가 다시 연결될 가능성을 보여 주는 흐름이에요."

	capped := newTestEngine(t, WithBaseReadingCap(8)).Answer(in)
	assert.Contains(t, capped.Text, "리딩 요약: 연인 카드가…")

	// a single candidate per role makes every seed pick the top scored part
	narrow := newTestEngine(t, WithTopCandidates(1))
	first := narrow.Answer(in)
	in.SeedKey = "another-seed"
	second := narrow.Answer(in)
	assert.Equal(t, first.Meta.Picked, second.Meta.Picked)
}

func TestResolveSeedMatchesAnswer(t *testing.T) {
	engine := newTestEngine(t)
	in := sampleInput()
	seed := engine.ResolveSeed(in)
	assert.Equal(t, seed, engine.Answer(in).Meta.Seed)

	in.SeedKey = seed
	assert.Equal(t, engine.Answer(sampleInput()), engine.Answer(in))
}
