package matcher

const (
	highConfidenceScore   = 70
	mediumConfidenceScore = 50
)

// Classify maps a score to a confidence tier.
//
// Under the default MinMatchScore of 50 a low match never reaches callers;
// it only shows up when the threshold is lowered.
func Classify(score int) Confidence {
	switch {
	case score >= highConfidenceScore:
		return ConfidenceHigh
	case score >= mediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
