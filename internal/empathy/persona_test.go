package empathy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSunZodiacBoundaries(t *testing.T) {
	tests := []struct {
		month, day int
		want       string
	}{
		{3, 21, "aries"},
		{4, 19, "aries"},
		{4, 20, "taurus"},
		{6, 21, "gemini"},
		{6, 22, "cancer"},
		{8, 22, "leo"},
		{9, 23, "libra"},
		{11, 22, "scorpio"},
		{12, 21, "sagittarius"},
		{12, 22, "capricorn"},
		{12, 31, "capricorn"},
		{1, 1, "capricorn"},
		{1, 19, "capricorn"},
		{1, 20, "aquarius"},
		{2, 18, "aquarius"},
		{2, 19, "pisces"},
		{3, 20, "pisces"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p := SunZodiac(Birth{Year: 1990, Month: tt.month, Day: tt.day})
			assert.Equal(t, tt.want, p.Key)
			assert.Empty(t, p.CalendarNote)
		})
	}
}

func TestSunZodiacEveryDayHasSign(t *testing.T) {
	days := []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for m, n := range days {
		for d := 1; d <= n; d++ {
			require.NotEqual(t, "universal", SunZodiac(Birth{Year: 2000, Month: m + 1, Day: d}).Key, "%d/%d", m+1, d)
		}
	}
}

func TestSunZodiacInvalidDateIsUniversal(t *testing.T) {
	for _, b := range []Birth{{}, {Year: 1990, Month: 13, Day: 1}, {Year: 1990, Month: 2, Day: 0}} {
		p := SunZodiac(b)
		assert.Equal(t, "universal", p.Key)
		assert.Equal(t, StyleSoft, p.Tone)
	}
}

func TestSunZodiacPersonaFields(t *testing.T) {
	p := SunZodiac(Birth{Year: 1990, Month: 7, Day: 30})
	assert.Equal(t, "사자자리", p.Zodiac)
	assert.Equal(t, "불", p.Element)
	assert.Equal(t, "고정", p.Modality)
	assert.Equal(t, StyleDirect, p.Tone)
	assert.NotEmpty(t, p.Trait)
	assert.NotEmpty(t, p.Motive)
}

func TestToSolarBirthReferenceCase(t *testing.T) {
	got := ToSolarBirth(Birth{Year: 1956, Month: 1, Day: 21, Calendar: CalendarLunar})
	require.True(t, got.Converted)
	assert.Equal(t, 1956, got.Solar.Year)
	assert.Equal(t, 3, got.Solar.Month)
	assert.Equal(t, 3, got.Solar.Day)
	assert.Equal(t, CalendarSolar, got.Solar.Calendar)
	assert.Contains(t, got.Note, "양력 1956년 3월 3일")
}

func TestToSolarBirthLeapMonth(t *testing.T) {
	regular := ToSolarBirth(Birth{Year: 2020, Month: 4, Day: 1, Calendar: CalendarLunar})
	leap := ToSolarBirth(Birth{Year: 2020, Month: 4, Day: 1, Calendar: CalendarLunar, LeapMonth: true})
	require.True(t, regular.Converted)
	require.True(t, leap.Converted)
	assert.Equal(t, Birth{Year: 2020, Month: 4, Day: 23, Calendar: CalendarSolar}, regular.Solar)
	assert.Equal(t, Birth{Year: 2020, Month: 5, Day: 23, Calendar: CalendarSolar}, leap.Solar)
	assert.Contains(t, leap.Note, "윤4월")
}

func TestToSolarBirthDegradesGracefully(t *testing.T) {
	tests := []struct {
		name  string
		birth Birth
	}{
		{"missing leap month", Birth{Year: 2021, Month: 4, Day: 1, Calendar: CalendarLunar, LeapMonth: true}},
		{"year out of range", Birth{Year: 1800, Month: 1, Day: 1, Calendar: CalendarLunar}},
		{"bad month", Birth{Year: 2000, Month: 13, Day: 1, Calendar: CalendarLunar}},
		{"bad day", Birth{Year: 2000, Month: 1, Day: 31, Calendar: CalendarLunar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SolarBirth
			require.NotPanics(t, func() { got = ToSolarBirth(tt.birth) })
			assert.False(t, got.Converted)
			assert.NotEmpty(t, got.Note)
			assert.Equal(t, tt.birth.Month, got.Solar.Month)
			assert.Equal(t, tt.birth.Day, got.Solar.Day)
			assert.Equal(t, CalendarSolar, got.Solar.Calendar)
		})
	}
}

func TestSolarInputPassesThrough(t *testing.T) {
	got := ToSolarBirth(Birth{Year: 1990, Month: 5, Day: 17, LeapMonth: true})
	assert.False(t, got.Converted)
	assert.Empty(t, got.Note)
	assert.Equal(t, Birth{Year: 1990, Month: 5, Day: 17, Calendar: CalendarSolar}, got.Solar)
}

func TestSunZodiacUsesLunarConversion(t *testing.T) {
	// lunar 1956-01-21 is solar 1956-03-03, a Pisces date; read as solar
	// it would be Aquarius.
	p := SunZodiac(Birth{Year: 1956, Month: 1, Day: 21, Calendar: CalendarLunar})
	assert.Equal(t, "pisces", p.Key)
	assert.NotEmpty(t, p.CalendarNote)
}
