package heuristics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/scopa-ai/signal/internal/models"
)

// Budget is the result of budget extraction. Amount is empty unless an
// explicit figure was found.
type Budget struct {
	Category models.BudgetCategory `json:"category"`
	Amount   string                `json:"amount,omitempty"`
}

const (
	mediumBudgetFloor = 1000
	highBudgetFloor   = 5000

	// larger figures are noise (ids, phone numbers) and would overflow int64
	maxBudgetAmount = 1e12
)

// Checked in priority order. Group 1 is the number, group 2 an optional "k".
var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s?(k)?\b`),
	regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s?(k)\b`),
	regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s?()(?:usd|dollars)\b`),
}

var budgetKeywords = []struct {
	category models.BudgetCategory
	phrases  []string
}{
	{models.BudgetHigh, []string{
		"well funded", "well-funded", "large budget", "big budget", "generous budget",
		"no budget limit", "enterprise budget", "money is not an issue", "top dollar",
	}},
	{models.BudgetMedium, []string{
		"reasonable budget", "moderate budget", "decent budget", "fair price",
		"competitive rate", "market rate", "flexible budget",
	}},
	{models.BudgetLow, []string{
		"small budget", "tight budget", "low budget", "limited budget", "shoestring",
		"cheap", "no budget", "student project", "volunteer", "unpaid",
	}},
}

// CategorizeAmount buckets an amount in dollars
func CategorizeAmount(amount float64) models.BudgetCategory {
	switch {
	case amount >= highBudgetFloor:
		return models.BudgetHigh
	case amount >= mediumBudgetFloor:
		return models.BudgetMedium
	default:
		return models.BudgetLow
	}
}

// ExtractBudget finds an explicit amount ("$5,000", "5k", "500 USD") or falls
// back to budget phrases. Returns Unknown when nothing matches.
func ExtractBudget(text string) Budget {
	unknown := Budget{Category: models.BudgetUnknown}

	return attempt("ExtractBudget", unknown, func() Budget {
		content := normalize(text)
		if content == "" {
			return unknown
		}

		if amount, ok := explicitAmount(content); ok {
			return Budget{
				Category: CategorizeAmount(amount),
				Amount:   "$" + humanize.Comma(int64(math.Round(amount))),
			}
		}

		for _, bucket := range budgetKeywords {
			if containsAny(content, bucket.phrases) {
				return Budget{Category: bucket.category}
			}
		}

		return unknown
	})
}

func explicitAmount(content string) (float64, bool) {
	for _, pattern := range budgetPatterns {
		match := findSubmatch(pattern, content)
		if len(match) < 3 {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil || value <= 0 {
			continue
		}
		if match[2] == "k" {
			value *= 1000
		}
		if value > maxBudgetAmount {
			continue
		}
		return value, true
	}
	return 0, false
}

// hasBudgetSignal is the fit-score check for any budget-like pattern
func hasBudgetSignal(content string) bool {
	if strings.Contains(content, "budget") {
		return true
	}
	for _, pattern := range budgetPatterns {
		if matches(pattern, content) {
			return true
		}
	}
	return false
}
