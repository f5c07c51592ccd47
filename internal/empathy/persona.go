package empathy

type zodiacSign struct {
	key        string
	name       string
	startMonth int
	startDay   int
	endMonth   int
	endDay     int
	trait      string
	motive     string
	element    string
	modality   string
}

var zodiacSigns = []zodiacSign{
	{"aries", "양자리", 3, 21, 4, 19, "솔직하고 용감한", "새로운 시작", "불", "활동"},
	{"taurus", "황소자리", 4, 20, 5, 20, "단단하고 꾸준한", "흔들리지 않는 안정", "흙", "고정"},
	{"gemini", "쌍둥이자리", 5, 21, 6, 21, "호기심 많고 재치 있는", "새로운 연결", "공기", "변통"},
	{"cancer", "게자리", 6, 22, 7, 22, "다정하고 섬세한", "마음의 안식처", "물", "활동"},
	{"leo", "사자자리", 7, 23, 8, 22, "따뜻하고 당당한", "나다운 표현", "불", "고정"},
	{"virgo", "처녀자리", 8, 23, 9, 22, "꼼꼼하고 성실한", "더 나은 정돈", "흙", "변통"},
	{"libra", "천칭자리", 9, 23, 10, 22, "균형 잡히고 다정한", "조화로운 관계", "공기", "활동"},
	{"scorpio", "전갈자리", 10, 23, 11, 22, "깊고 집요한", "진짜 마음", "물", "고정"},
	{"sagittarius", "사수자리", 11, 23, 12, 21, "자유롭고 낙관적인", "더 넓은 세계", "불", "변통"},
	{"capricorn", "염소자리", 12, 22, 1, 19, "책임감 있고 끈기 있는", "오래 가는 성취", "흙", "활동"},
	{"aquarius", "물병자리", 1, 20, 2, 18, "독립적이고 창의적인", "나다운 방식", "공기", "고정"},
	{"pisces", "물고기자리", 2, 19, 3, 20, "감수성 깊고 따뜻한", "마음이 닿는 곳", "물", "변통"},
}

// universalPersona is returned when no sign matches the date.
var universalPersona = Persona{
	Key:    "universal",
	Zodiac: "오늘의 하늘",
	Trait:  "자기 속도를 아는",
	Motive: "나다운 흐름",
	Tone:   StyleSoft,
}

// contains reports whether (month, day) falls inside the sign's range,
// wrapping across the year boundary when the range does.
func (z zodiacSign) contains(month, day int) bool {
	md := month*100 + day
	start := z.startMonth*100 + z.startDay
	end := z.endMonth*100 + z.endDay
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

func (z zodiacSign) persona() Persona {
	return Persona{
		Key:      z.key,
		Zodiac:   z.name,
		Trait:    z.trait,
		Motive:   z.motive,
		Element:  z.element,
		Modality: z.modality,
		Tone:     toneForElement(z.element),
	}
}

func toneForElement(element string) Style {
	switch element {
	case "불", "공기":
		return StyleDirect
	default:
		return StyleSoft
	}
}

// SunZodiac resolves the sun-sign persona for birth. Lunar dates are
// converted to solar first. It never panics; dates it cannot place yield
// the universal persona.
func SunZodiac(birth Birth) Persona {
	solar := ToSolarBirth(birth)
	persona := signFor(solar.Solar.Month, solar.Solar.Day)
	persona.CalendarNote = solar.Note
	return persona
}

func signFor(month, day int) Persona {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return universalPersona
	}
	for _, sign := range zodiacSigns {
		if sign.contains(month, day) {
			return sign.persona()
		}
	}
	return universalPersona
}

// ZodiacKeys lists the sign keys in calendar order starting from Aries.
func ZodiacKeys() []string {
	keys := make([]string, 0, len(zodiacSigns))
	for _, sign := range zodiacSigns {
		keys = append(keys, sign.key)
	}
	return keys
}

// zodiacNames is the anchor vocabulary contributed by sign names.
func zodiacNames() []string {
	names := make([]string, 0, len(zodiacSigns))
	for _, sign := range zodiacSigns {
		names = append(names, sign.name)
	}
	return names
}
