package empathy

// ResolveTempo maps topic, need and intensity to a pacing directive.
func ResolveTempo(topic Topic, need Need, intensity int) Tempo {
	switch need {
	case NeedReassurance, NeedClosure:
		return TempoPause
	case NeedAgency, NeedBoundary:
		if intensity >= 2 {
			return TempoPush
		}
		return TempoBalanced
	case NeedClarity:
		return TempoBalanced
	}
	if topic == TopicMoney || topic == TopicCareer {
		return TempoPush
	}
	return TempoPause
}
