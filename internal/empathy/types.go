// Package empathy builds short, deterministic Korean answers for tarot and
// astrology questions. A question is classified into topic, emotion,
// intensity and need; six phrase parts are scored and sampled from an
// indexed corpus with a seeded RNG; the parts are rendered, composed into a
// fixed discourse and checked against the Tarot + Western-astrology belief
// frame.
package empathy

// Role is the discourse function of a part inside the six-beat answer.
type Role string

const (
	RoleMirror   Role = "mirror"
	RoleValidate Role = "validate"
	RoleReframe  Role = "reframe"
	RoleAction   Role = "action"
	RoleBoundary Role = "boundary"
	RoleClosing  Role = "closing"
)

// Roles lists every role in the order parts are picked.
var Roles = []Role{RoleMirror, RoleValidate, RoleReframe, RoleAction, RoleBoundary, RoleClosing}

type Topic string

const (
	TopicLove         Topic = "love"
	TopicRelationship Topic = "relationship"
	TopicSelf         Topic = "self"
	TopicCareer       Topic = "career"
	TopicMoney        Topic = "money"
	TopicTiming       Topic = "timing"
	TopicUniversal    Topic = "universal"
)

var Topics = []Topic{TopicLove, TopicRelationship, TopicSelf, TopicCareer, TopicMoney, TopicTiming, TopicUniversal}

type Emotion string

const (
	EmotionAnxiety     Emotion = "anxiety"
	EmotionPressure    Emotion = "pressure"
	EmotionConfusion   Emotion = "confusion"
	EmotionFrustration Emotion = "frustration"
	EmotionAnger       Emotion = "anger"
	EmotionFatigue     Emotion = "fatigue"
	EmotionLoneliness  Emotion = "loneliness"
	EmotionLonging     Emotion = "longing"
	EmotionHope        Emotion = "hope"
	EmotionRelief      Emotion = "relief"
)

var Emotions = []Emotion{
	EmotionAnxiety, EmotionPressure, EmotionConfusion, EmotionFrustration, EmotionAnger,
	EmotionFatigue, EmotionLoneliness, EmotionLonging, EmotionHope, EmotionRelief,
}

type Need string

const (
	NeedReassurance Need = "reassurance"
	NeedClarity     Need = "clarity"
	NeedAgency      Need = "agency"
	NeedBoundary    Need = "boundary"
	NeedClosure     Need = "closure"
)

var Needs = []Need{NeedReassurance, NeedClarity, NeedAgency, NeedBoundary, NeedClosure}

type Style string

const (
	StyleDirect Style = "direct"
	StyleSoft   Style = "soft"
)

// Tempo is the pacing directive used to keep push and pause language from
// landing in the same answer.
type Tempo string

const (
	TempoPush     Tempo = "push"
	TempoPause    Tempo = "pause"
	TempoBalanced Tempo = "balanced"
)

type Calendar string

const (
	CalendarSolar Calendar = "solar"
	CalendarLunar Calendar = "lunar"
)

// Part is one immutable corpus fragment.
type Part struct {
	ID        string  `json:"id" yaml:"id"`
	Role      Role    `json:"role" yaml:"role"`
	Topic     Topic   `json:"topic" yaml:"topic"`
	Emotion   Emotion `json:"emotion" yaml:"emotion"`
	Need      Need    `json:"need" yaml:"need"`
	Intensity int     `json:"intensity" yaml:"intensity"`
	Style     Style   `json:"style" yaml:"style"`
	Text      string  `json:"text" yaml:"text"`
}

// Birth is the caller supplied birth information.
type Birth struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Day       int      `json:"day"`
	Hour      int      `json:"hour,omitempty"`
	Minute    int      `json:"minute,omitempty"`
	Calendar  Calendar `json:"calendar,omitempty"`
	LeapMonth bool     `json:"leapMonth,omitempty"`
}

// Env carries optional situational context. Timestamp is epoch milliseconds.
type Env struct {
	Timestamp int64  `json:"timestamp,omitempty"`
	Location  string `json:"location,omitempty"`
	Weather   string `json:"weather,omitempty"`
	DayPeriod string `json:"dayPeriod,omitempty"`
}

// Input is one answer request. Every field is optional.
type Input struct {
	Name        string   `json:"name,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Birth       Birth    `json:"birth"`
	Question    string   `json:"question,omitempty"`
	Cards       []string `json:"cards,omitempty"`
	BaseReading string   `json:"baseReading,omitempty"`
	Env         Env      `json:"env"`
	SeedKey     string   `json:"seedKey,omitempty"`
	Style       Style    `json:"style,omitempty"`
}

// Persona is the Western-zodiac profile derived from a birth date.
type Persona struct {
	Key          string `json:"key"`
	Zodiac       string `json:"zodiac"`
	Trait        string `json:"trait"`
	Motive       string `json:"motive"`
	Element      string `json:"element"`
	Modality     string `json:"modality"`
	Tone         Style  `json:"tone"`
	CalendarNote string `json:"calendarNote,omitempty"`
}

// Meta exposes every derived value of one answer for logging and QA.
type Meta struct {
	Topic            Topic           `json:"topic"`
	Emotion          Emotion         `json:"emotion"`
	Need             Need            `json:"need"`
	Intensity        int             `json:"intensity"`
	Tempo            Tempo           `json:"tempo"`
	Style            Style           `json:"style"`
	Persona          Persona         `json:"persona"`
	Seed             string          `json:"seed"`
	Picked           map[Role]string `json:"picked"`
	BeliefOK         bool            `json:"belief_ok"`
	BeliefViolations []string        `json:"belief_violations,omitempty"`
	Anchored         bool            `json:"anchored"`
	Unresolved       []string        `json:"unresolved,omitempty"`
}

// Answer is the composed text plus its diagnostics.
type Answer struct {
	Text string `json:"text"`
	Meta Meta   `json:"meta"`
}
