package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/scopa-ai/signal/internal/models"
	"github.com/sirupsen/logrus"
)

// jsonObjectPattern grabs the widest {...} span, like a greedy /\{[\s\S]*\}/
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON returns the outermost brace-delimited span of text, if any
func ExtractJSON(text string) (string, bool) {
	match := jsonObjectPattern.FindString(text)
	return match, match != ""
}

// Parsed is the outcome of a best-effort parse of model output: either the
// decoded value (OK) or the fallback together with the reason it was used.
type Parsed[T any] struct {
	Value  T
	OK     bool
	Reason string
}

func parsed[T any](v T) Parsed[T] {
	return Parsed[T]{Value: v, OK: true}
}

func fallback[T any](v T, format string, args ...any) Parsed[T] {
	return Parsed[T]{Value: v, Reason: fmt.Sprintf(format, args...)}
}

// decodeObject extracts the first JSON object in text and decodes it into T
func decodeObject[T any](text string, def T) Parsed[T] {
	raw, ok := ExtractJSON(text)
	if !ok {
		return fallback(def, "no JSON object in response")
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback(def, "invalid JSON: %v", err)
	}
	return parsed(v)
}

// AlertAnalysis is the structured result the model returns for an alert keyword
type AlertAnalysis struct {
	HasOpportunity     bool              `json:"hasOpportunity"`
	Score              float64           `json:"score"`
	Summary            string            `json:"summary"`
	OpportunitiesCount int               `json:"opportunitiesCount"`
	Opportunities      []json.RawMessage `json:"opportunities"`
}

// ParseAlertAnalysis parses model output for the alert path. Any failure
// yields {hasOpportunity:false, score:0}.
func ParseAlertAnalysis(text string) Parsed[AlertAnalysis] {
	result := decodeObject(text, AlertAnalysis{})
	if !result.OK {
		logrus.Warnf("Falling back to empty alert analysis: %s", result.Reason)
	}
	return result
}

type opportunityEnvelope struct {
	Opportunities []models.Opportunity `json:"opportunities"`
}

// ParseOpportunities parses model output for the opportunity search path
func ParseOpportunities(text string) Parsed[[]models.Opportunity] {
	result := decodeObject(text, opportunityEnvelope{})
	if !result.OK {
		logrus.Warnf("Falling back to no opportunities: %s", result.Reason)
		return fallback([]models.Opportunity{}, "%s", result.Reason)
	}
	if result.Value.Opportunities == nil {
		return parsed([]models.Opportunity{})
	}
	return parsed(result.Value.Opportunities)
}

type suggestedLead struct {
	ProspectName   string `json:"prospectName"`
	RequestSummary string `json:"requestSummary"`
	FitScore       int    `json:"fitScore"`
	ContactInfo    string `json:"contactInfo"`
	SourceURL      string `json:"sourceUrl"`
	Location       string `json:"location"`
}

type leadEnvelope struct {
	Leads []suggestedLead `json:"leads"`
}

func parseSuggestedLeads(text string) Parsed[[]suggestedLead] {
	result := decodeObject(text, leadEnvelope{})
	if !result.OK {
		return fallback([]suggestedLead(nil), "%s", result.Reason)
	}
	return parsed(result.Value.Leads)
}
