package profile

const (
	highRiskAbove   = 60
	mediumRiskAbove = 30
)

// Classify scores a factor list and buckets the score into a risk level.
// This is pure domain logic - no I/O, no side effects.
// Thresholds are exclusive: 61 is high, 60 is medium, 31 is medium, 30 is low.
func Classify(factors []Factor) RiskProfile {
	score := 0
	for _, f := range factors {
		score += f.Weight()
	}

	level := RiskLow
	switch {
	case score > highRiskAbove:
		level = RiskHigh
	case score > mediumRiskAbove:
		level = RiskMedium
	}

	return RiskProfile{
		Score:     score,
		Level:     level,
		Rationale: append([]Factor{}, factors...),
	}
}

// Recommend maps each factor of the profile to its advice, in factor order.
// Factors without advice are skipped. Confidence is attached by the caller.
func Recommend(profile RiskProfile) *Recommendations {
	recs := make([]string, 0, len(profile.Rationale))
	for _, f := range profile.Rationale {
		if rec, ok := f.Recommendation(); ok {
			recs = append(recs, rec)
		}
	}
	return &Recommendations{
		RiskLevel:       profile.Level,
		Factors:         append([]Factor{}, profile.Rationale...),
		Recommendations: recs,
		Status:          StatusOK,
	}
}

// Evaluation is everything the pipeline learned about one input.
type Evaluation struct {
	Result     Result
	Normalized Normalized
	// Profile is nil when the guardrail rejected the answers.
	Profile *RiskProfile
}

// Evaluate runs the full pipeline: normalize, guardrail, factors, score, recommend.
// It is deterministic; equal inputs always yield equal evaluations.
func Evaluate(input Input) (Evaluation, error) {
	normalized, err := Normalize(input)
	if err != nil {
		return Evaluation{}, err
	}

	if incomplete := CheckCompleteness(normalized.Answers); incomplete != nil {
		return Evaluation{Result: incomplete, Normalized: normalized}, nil
	}

	risk := Classify(ExtractFactors(normalized.Answers))
	recs := Recommend(risk)
	recs.Confidence = normalized.Confidence

	return Evaluation{Result: recs, Normalized: normalized, Profile: &risk}, nil
}
