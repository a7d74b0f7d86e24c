package heuristics

import (
	"fmt"
	"math"
	"strings"

	"github.com/scopa-ai/signal/internal/models"
)

// Matcher decides whether a post's text is relevant to a user query
type Matcher func(text, query string) bool

const (
	MatchLoose  = "loose"
	MatchStrict = "strict"
)

// MatcherFor returns the named query-matching strategy
func MatcherFor(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MatchLoose:
		return MatchesQuery, nil
	case MatchStrict:
		return MatchesQueryStrict, nil
	default:
		return nil, fmt.Errorf("unknown query match mode %q", name)
	}
}

func queryTokens(query string) []string {
	return strings.Fields(normalize(query))
}

// MatchesQuery reports whether ANY query token appears in text.
// This is the permissive matcher used by the live scanning path.
func MatchesQuery(text, query string) bool {
	return attempt("MatchesQuery", false, func() bool {
		content := normalize(text)
		for _, token := range queryTokens(query) {
			if strings.Contains(content, token) {
				return true
			}
		}
		return false
	})
}

// MatchesQueryStrict requires every token for one- or two-word queries and
// at least 75% token coverage for longer ones.
func MatchesQueryStrict(text, query string) bool {
	return attempt("MatchesQueryStrict", false, func() bool {
		tokens := queryTokens(query)
		if len(tokens) == 0 {
			return false
		}
		coverage := tokenCoverage(normalize(text), tokens)
		if len(tokens) <= 2 {
			return coverage == 1
		}
		return coverage >= 0.75
	})
}

func tokenCoverage(content string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	found := 0
	for _, token := range tokens {
		if strings.Contains(content, token) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

var leadIndicators = []string{
	"looking for", "hiring", "need a", "need an", "need help", "need someone",
	"seeking", "want to hire", "will pay", "paid gig", "paying", "budget",
	"freelancer", "freelance", "contractor", "contract work", "[task]", "[hiring]",
	"quote", "can anyone build", "developer needed", "help wanted", "urgent", "asap",
}

var opportunityIndicators = []string{
	"frustrated", "frustrating", "wish there was", "wish there were", "is there a tool",
	"is there an app", "anyone know", "problem with", "pain point", "annoying",
	"struggling", "alternative to", "hate when", "hate that", "doesn't exist",
	"would pay for", "missing feature", "no good solution", "too expensive",
	"waste of time", "tedious", "manually", "how do you handle", "sucks",
}

// ContainsLeadIndicators reports whether text carries a hiring/budget phrase
// (LEAD) or a complaint/market-gap phrase (OPPORTUNITY).
func ContainsLeadIndicators(text string, mode models.SearchMode) bool {
	return attempt("ContainsLeadIndicators", false, func() bool {
		content := normalize(text)
		if mode == models.ModeOpportunity {
			return containsAny(content, opportunityIndicators)
		}
		return containsAny(content, leadIndicators)
	})
}

// roundHalfUp mirrors the rounding used for scores shown to users
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
