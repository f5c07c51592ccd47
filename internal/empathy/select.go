package empathy

import "slices"

// topCandidates is how many of the best scored parts the RNG samples from.
const topCandidates = 14

// want is the context one role is picked against.
type want struct {
	role      Role
	topic     Topic
	emotion   Emotion
	intensity int
	style     Style
	need      Need
	tempo     Tempo
	limit     int
}

// availability records which optional inputs can fill context placeholders.
type availability struct {
	name      bool
	cards     int
	weather   bool
	dayPeriod bool
	location  bool
}

func availabilityOf(in Input) availability {
	return availability{
		name:      trimmed(in.Name) != "",
		cards:     len(nonEmpty(in.Cards)),
		weather:   trimmed(in.Env.Weather) != "",
		dayPeriod: trimmed(in.Env.DayPeriod) != "",
		location:  trimmed(in.Env.Location) != "",
	}
}

func (a availability) usable(kind string, f partFeatures) bool {
	switch kind {
	case "name":
		return a.name
	case "card":
		return a.cards > 0 && a.cards >= f.maxCard
	case "weather":
		return a.weather
	case "dayPeriod":
		return a.dayPeriod
	case "location":
		return a.location
	}
	return false
}

// usedSet holds the ids already picked within one answer. It never
// outlives a single Answer call.
type usedSet map[string]struct{}

func (u usedSet) has(id string) bool {
	_, ok := u[id]
	return ok
}

func (u usedSet) add(id string) {
	u[id] = struct{}{}
}

// scorePart is additive; no single factor dominates.
func scorePart(p Part, f partFeatures, w want, avail availability) int {
	score := 0

	switch {
	case p.Topic == w.topic:
		score += 4
	case p.Topic == TopicUniversal:
		score += 2
	default:
		score--
	}

	if p.Emotion == w.emotion {
		score += 3
	} else if c := emotionCluster(w.emotion); c != "" && c == emotionCluster(p.Emotion) {
		score++
	}

	score -= abs(p.Intensity - w.intensity)

	if p.Style == w.style {
		score += 2
	}
	if (p.Role == RoleAction || p.Role == RoleBoundary) && w.intensity >= 3 && p.Style == StyleDirect {
		score++
	}

	if p.Need == w.need {
		score += 3
	} else {
		score += f.needHint[w.need]
	}

	for _, kind := range f.ctxKinds {
		if avail.usable(kind, f) {
			score++
		}
	}

	if (w.tempo == TempoPush && f.pauseLang) || (w.tempo == TempoPause && f.pushLang) {
		score -= 2
	}
	return score
}

type scored struct {
	idx   int
	score int
}

// pickPart scores every unused part of the wanted role, keeps the best
// w.limit (default topCandidates) in stable order and lets rng choose
// among them. When the role is exhausted it returns the role's first
// part. The picked id is added to used.
func (c *Corpus) pickPart(rng *RNG, w want, used usedSet, avail availability) Part {
	idxs := c.byRole[w.role]
	candidates := make([]scored, 0, len(idxs))
	for _, i := range idxs {
		p := c.parts[i]
		if used.has(p.ID) {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: scorePart(p, c.features[i], w, avail)})
	}

	if len(candidates) == 0 {
		if len(idxs) == 0 {
			return Part{Role: w.role}
		}
		p := c.parts[idxs[0]]
		used.add(p.ID)
		return p
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		return b.score - a.score
	})
	limit := w.limit
	if limit <= 0 {
		limit = topCandidates
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	p := c.parts[candidates[rng.Intn(len(candidates))].idx]
	used.add(p.ID)
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
