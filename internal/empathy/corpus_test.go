package empathy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpusIsCompleteAndValid(t *testing.T) {
	c, err := DefaultCorpus()
	require.NoError(t, err)

	report := c.Report()
	assert.False(t, report.HasErrors())
	assert.Empty(t, report.Warnings, "every role/topic/emotion combination should have a candidate")
	assert.Equal(t, 1121, c.Len())

	for _, role := range Roles {
		parts := c.ByRole(role)
		assert.Greater(t, len(parts), 150, role)
		for _, topic := range Topics {
			for _, emotion := range Emotions {
				for _, p := range c.Candidates(role, topic, emotion) {
					assert.Equal(t, role, p.Role)
					assert.Equal(t, topic, p.Topic)
					assert.Equal(t, emotion, p.Emotion)
				}
			}
		}
	}

	p, ok := c.Get("mir-stress-soft-love-anxiety")
	require.True(t, ok)
	assert.Equal(t, RoleMirror, p.Role)
	assert.Equal(t, NeedReassurance, p.Need)
	assert.Equal(t, 2, p.Intensity)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestDefaultCorpusIsLoadedOnce(t *testing.T) {
	a, err := DefaultCorpus()
	require.NoError(t, err)
	b, err := DefaultCorpus()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoadCorpusRejectsInvalidFamilies(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown group", `
families:
  - {id: a, role: mirror, need: clarity, style: soft, intensity: 1, topics: ["@nope"], emotions: [hope], text: "x"}
`},
		{"bad role", `
families:
  - {id: a, role: chorus, need: clarity, style: soft, intensity: 1, topics: [love], emotions: [hope], text: "x"}
`},
		{"bad intensity", `
families:
  - {id: a, role: mirror, need: clarity, style: soft, intensity: 5, topics: [love], emotions: [hope], text: "x"}
`},
		{"duplicate ids", `
families:
  - {id: a, role: mirror, need: clarity, style: soft, intensity: 1, topics: [love, love], emotions: [hope], text: "x"}
`},
		{"disallowed term", `
families:
  - {id: a, role: mirror, need: clarity, style: soft, intensity: 1, topics: [love], emotions: [hope], text: "사주가 좋아"}
`},
		{"unknown placeholder", `
families:
  - {id: a, role: mirror, need: clarity, style: soft, intensity: 1, topics: [love], emotions: [hope], text: "{mood}"}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCorpus([]byte(tt.yaml))
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, verr.Report.HasErrors())
		})
	}
}

func TestLoadCorpusParseError(t *testing.T) {
	_, err := LoadCorpus([]byte("families: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse corpus")
}

func TestLoadCorpusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.yaml")
	require.NoError(t, os.WriteFile(path, embeddedCorpus, 0o644))

	c, err := LoadCorpusFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1121, c.Len())

	_, err = LoadCorpusFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewCorpusReportsCoverageGaps(t *testing.T) {
	var parts []Part
	for _, role := range Roles {
		parts = append(parts, Part{ID: string(role), Role: role, Topic: TopicLove, Emotion: EmotionHope,
			Need: NeedClarity, Intensity: 1, Style: StyleSoft, Text: "흐름"})
	}
	c := NewCorpus(parts)
	report := c.Report()
	assert.False(t, report.HasErrors())
	assert.Len(t, report.Warnings, len(Roles)*(len(Topics)*len(Emotions)-1))
}

func TestAnalyzePartFeatures(t *testing.T) {
	f := analyzePart(Part{Text: "{name}의 {card2} 카드를 보며 지금 바로 시작해, {weather}에도 {card1}"})
	assert.Equal(t, []string{"name", "card2", "weather", "card1"}, f.placeholders)
	assert.Equal(t, []string{"name", "card", "weather"}, f.ctxKinds)
	assert.Equal(t, 2, f.maxCard)
	assert.True(t, f.pushLang)
	assert.False(t, f.pauseLang)
	assert.Equal(t, 2, f.needHint[NeedAgency])
}
