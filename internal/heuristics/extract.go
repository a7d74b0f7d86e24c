package heuristics

import (
	"regexp"
	"strings"

	"github.com/scopa-ai/signal/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	highUrgencyKeywords   = []string{"urgent", "asap", "rush", "deadline"}
	mediumUrgencyKeywords = []string{"soon", "next week"}
)

// ExtractUrgency buckets text by urgency keywords, defaulting to Low
func ExtractUrgency(text string) models.Urgency {
	return attempt("ExtractUrgency", models.UrgencyLow, func() models.Urgency {
		content := normalize(text)
		switch {
		case containsAny(content, highUrgencyKeywords):
			return models.UrgencyHigh
		case containsAny(content, mediumUrgencyKeywords):
			return models.UrgencyMedium
		default:
			return models.UrgencyLow
		}
	})
}

func hasUrgencySignal(content string) bool {
	return containsAny(content, highUrgencyKeywords) || containsAny(content, mediumUrgencyKeywords)
}

const usStates = `AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC`

var (
	cityPattern = regexp.MustCompile(`\b(new york|san francisco|los angeles|london|berlin|toronto|austin|seattle|chicago|boston|sydney|paris|amsterdam|singapore|bangalore|dubai|miami|denver|vancouver|melbourne)\b`)
	// matched against the original casing
	cityStatePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?), ?(` + usStates + `)\b`)
	remotePattern    = regexp.MustCompile(`\b(remote|worldwide|global)\b`)
)

// a Caser is stateful, so one is built per call
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// ExtractLocation returns the first location found, or "" when none
func ExtractLocation(text string) string {
	return attempt("ExtractLocation", "", func() string {
		valid := strings.ToValidUTF8(text, "")
		content := strings.ToLower(valid)

		if match := findSubmatch(cityPattern, content); len(match) > 1 {
			return titleCase(match[1])
		}
		if match := findSubmatch(cityStatePattern, valid); len(match) > 2 {
			return match[1] + ", " + match[2]
		}
		if match := findSubmatch(remotePattern, content); len(match) > 1 {
			return titleCase(match[1])
		}
		return ""
	})
}
