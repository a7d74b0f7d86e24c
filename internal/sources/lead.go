package sources

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/scopa-ai/signal/internal/heuristics"
	"github.com/scopa-ai/signal/internal/models"
)

const summaryMaxLength = 200

// Lead ID prefixes keep IDs from different sources disjoint
const (
	prefixReddit     = "reddit"
	prefixHackerNews = "hn"
	prefixGitHub     = "github"
	prefixTwitter    = "twitter"
)

func newLeadID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// scoredLead fills every heuristic-derived field of a lead from fullText
func scoredLead(prefix string, source models.LeadSource, fullText, query string, postedAt time.Time, now time.Time) models.Lead {
	budget := heuristics.ExtractBudget(fullText)

	return models.Lead{
		ID:           newLeadID(prefix),
		Source:       source,
		PostedAt:     heuristics.FormatPostedAt(postedAt, now),
		Location:     heuristics.ExtractLocation(fullText),
		FitScore:     heuristics.CalculateFitScore(fullText, query),
		Budget:       budget.Category,
		BudgetAmount: budget.Amount,
		Urgency:      heuristics.ExtractUrgency(fullText),
		Status:       models.StatusNew,
	}
}

func summarize(primary, fallback string) string {
	text := strings.TrimSpace(primary)
	if text == "" {
		text = strings.TrimSpace(fallback)
	}
	return truncateText(strings.Join(strings.Fields(text), " "), summaryMaxLength)
}

func truncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength]) + "..."
}
