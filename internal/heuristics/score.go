package heuristics

const (
	baseFitScore     = 5
	queryCoverageMax = 3
	minFitScore      = 0
	maxFitScore      = 10
)

var professionalKeywords = []string{"project", "professional", "experienced", "portfolio"}

// CalculateFitScore scores how well a post fits a query, in [0,10].
//
//	base 5, +3 x fraction of query tokens present, +1 budget-like pattern,
//	+1 urgency keyword, +1 professional keyword; rounded then clamped.
func CalculateFitScore(text, query string) int {
	return attempt("CalculateFitScore", minFitScore, func() int {
		content := normalize(text)
		score := float64(baseFitScore)

		if tokens := queryTokens(query); len(tokens) > 0 {
			score += queryCoverageMax * tokenCoverage(content, tokens)
		}
		if hasBudgetSignal(content) {
			score++
		}
		if hasUrgencySignal(content) {
			score++
		}
		if containsAny(content, professionalKeywords) {
			score++
		}

		return ClampScore(roundHalfUp(score))
	})
}

// ClampScore bounds a score to the 0-10 range
func ClampScore(score int) int {
	if score < minFitScore {
		return minFitScore
	}
	if score > maxFitScore {
		return maxFitScore
	}
	return score
}
