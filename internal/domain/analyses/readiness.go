package analyses

// SubmitThreshold is the minimum readiness score required to submit for review.
const SubmitThreshold = 75

// Readiness computes the completeness score for the current content.
// The score is server-authoritative: 25 points each for non-empty symptoms,
// non-empty signals, at least one hypothesis, and at least one populated
// supporting-context map. Always in [0,100], in steps of 25.
func Readiness(a *Analysis) int {
	score := 0
	if len(a.Symptoms) > 0 {
		score += 25
	}
	if len(a.Signals) > 0 {
		score += 25
	}
	if len(a.Hypotheses) > 0 {
		score += 25
	}
	if len(a.Environment) > 0 || len(a.Timeline) > 0 || len(a.Dependencies) > 0 || len(a.Risk) > 0 {
		score += 25
	}
	return score
}
