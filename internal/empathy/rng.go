package empathy

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// RNG is a mulberry32 generator seeded with the 32-bit FNV-1a hash of a
// seed string. The same seed always yields the same sequence.
type RNG struct {
	state uint32
}

// NewRNG seeds a generator from seed.
func NewRNG(seed string) *RNG {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return &RNG{state: h.Sum32()}
}

// Float64 returns the next draw in [0,1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Intn returns a draw in [0,n). n <= 0 yields 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(r.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

var seoul = time.FixedZone("KST", 9*60*60)

// SeedKey returns the explicit seed when present, otherwise the composite
// name|question|birth|cards|date key. The date is the KST calendar day of
// the env timestamp (or now), so repeats are stable within a day.
func SeedKey(in Input, now time.Time) string {
	if key := strings.TrimSpace(in.SeedKey); key != "" {
		return key
	}
	ts := now
	if in.Env.Timestamp > 0 {
		ts = time.UnixMilli(in.Env.Timestamp)
	}
	birth := fmt.Sprintf("%04d-%02d-%02d", in.Birth.Year, in.Birth.Month, in.Birth.Day)
	if in.Birth.Calendar == CalendarLunar {
		birth += "L"
		if in.Birth.LeapMonth {
			birth += "*"
		}
	}
	return strings.Join([]string{
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Question),
		birth,
		strings.Join(in.Cards, ","),
		ts.In(seoul).Format("2006-01-02"),
	}, "|")
}
