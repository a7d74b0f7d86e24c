package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scopa-ai/signal/internal/heuristics"
	"github.com/scopa-ai/signal/internal/metrics"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/sirupsen/logrus"
)

// ProviderLLM is the usage-tracker provider name for enrichment calls
const ProviderLLM = "llm"

const maxSuggestedLeads = 5

const systemPrompt = "You are a market research analyst. Always answer with a single JSON object and nothing else."

const alertPromptTemplate = `Analyze current market signals for the keyword %q.
Look for unmet needs, recurring complaints and underserved audiences.

Respond with JSON in exactly this shape:
{
  "hasOpportunity": boolean,
  "score": number between 0 and 10,
  "summary": "one paragraph",
  "opportunitiesCount": integer,
  "opportunities": [{"title": "...", "description": "...", "score": number}]
}`

const opportunityPromptTemplate = `Find up to 5 concrete business opportunities for someone interested in %q.

Respond with JSON in exactly this shape:
{
  "opportunities": [{
    "id": "short-slug",
    "problemStatement": "...",
    "overallScore": number 0-10,
    "demandSignal": number 0-10,
    "marketReadiness": number 0-10,
    "competition": number 0-10,
    "entryDifficulty": number 0-10,
    "evidence": ["..."],
    "whyItMatters": "...",
    "redFlags": "...",
    "nextSteps": ["..."],
    "targetAudience": "...",
    "marketSize": "..."
  }]
}`

const leadPromptTemplate = `Suggest up to %d realistic places or prospect types where someone offering %q would find paying clients right now.
Do not repeat these already-found prospects: %s

Respond with JSON in exactly this shape:
{
  "leads": [{
    "prospectName": "...",
    "requestSummary": "what they need, including budget and timing if known",
    "fitScore": integer 0-10,
    "contactInfo": "...",
    "sourceUrl": "...",
    "location": "..."
  }]
}`

// QuotaGate meters calls against a monthly allowance
type QuotaGate interface {
	Consume(ctx context.Context, provider string) error
}

// Analyzer runs the LLM-backed operations: alert analysis, opportunity search
// and lead enrichment.
type Analyzer struct {
	client *Client
	quota  QuotaGate
}

// NewAnalyzer creates an analyzer. quota may be nil, in which case enrichment
// is unmetered.
func NewAnalyzer(client *Client, quota QuotaGate) *Analyzer {
	return &Analyzer{client: client, quota: quota}
}

// AnalyzeAlert asks the model for an opportunity analysis of keyword and
// returns the raw response text. Callers parse it with ParseAlertAnalysis.
func (a *Analyzer) AnalyzeAlert(ctx context.Context, keyword string) (string, error) {
	text, err := a.client.Complete(ctx, systemPrompt, fmt.Sprintf(alertPromptTemplate, keyword))
	if err != nil {
		metrics.LLMRequest("alert", "error")
		return "", err
	}
	metrics.LLMRequest("alert", "ok")
	return text, nil
}

// FindOpportunities returns model-authored opportunities for interest. An
// unparseable response yields an empty list, not an error.
func (a *Analyzer) FindOpportunities(ctx context.Context, interest string) ([]models.Opportunity, error) {
	text, err := a.client.Complete(ctx, systemPrompt, fmt.Sprintf(opportunityPromptTemplate, interest))
	if err != nil {
		metrics.LLMRequest("opportunities", "error")
		return nil, err
	}
	metrics.LLMRequest("opportunities", "ok")

	result := ParseOpportunities(text)
	opportunities := result.Value
	for i := range opportunities {
		if opportunities[i].ID == "" {
			opportunities[i].ID = "opp_" + uuid.NewString()
		}
	}
	return opportunities, nil
}

// EnrichLeads asks the model for extra leads when the scanners came back
// thin. Suggested leads are flagged AIEnriched and scored by the same
// heuristics as scanned ones, except for the model's own fit score.
func (a *Analyzer) EnrichLeads(ctx context.Context, query string, existing []models.Lead) ([]models.Lead, error) {
	if a.quota != nil {
		if err := a.quota.Consume(ctx, ProviderLLM); err != nil {
			metrics.LLMRequest("enrich", "quota")
			return nil, fmt.Errorf("enrichment unavailable: %w", err)
		}
	}

	known := make([]string, 0, len(existing))
	for _, lead := range existing {
		known = append(known, lead.ProspectName)
	}
	knownList := "none"
	if len(known) > 0 {
		knownList = strings.Join(known, ", ")
	}

	text, err := a.client.Complete(ctx, systemPrompt, fmt.Sprintf(leadPromptTemplate, maxSuggestedLeads, query, knownList))
	if err != nil {
		metrics.LLMRequest("enrich", "error")
		return nil, err
	}
	metrics.LLMRequest("enrich", "ok")

	result := parseSuggestedLeads(text)
	if !result.OK {
		logrus.Warnf("Ignoring enrichment response: %s", result.Reason)
		return nil, nil
	}

	var leads []models.Lead
	for _, s := range result.Value {
		if strings.TrimSpace(s.RequestSummary) == "" {
			continue
		}
		budget := heuristics.ExtractBudget(s.RequestSummary)
		leads = append(leads, models.Lead{
			ID:             "ai_" + uuid.NewString(),
			ProspectName:   s.ProspectName,
			Username:       s.ProspectName,
			RequestSummary: s.RequestSummary,
			PostedAt:       "unknown",
			Source:         models.SourceAI,
			Location:       s.Location,
			FitScore:       heuristics.ClampScore(s.FitScore),
			Budget:         budget.Category,
			BudgetAmount:   budget.Amount,
			Urgency:        heuristics.ExtractUrgency(s.RequestSummary),
			ContactInfo:    s.ContactInfo,
			SourceURL:      s.SourceURL,
			Status:         models.StatusNew,
			AIEnriched:     true,
		})
		if len(leads) >= maxSuggestedLeads {
			break
		}
	}

	logrus.Infof("Enriched %q with %d AI-suggested leads", query, len(leads))
	return leads, nil
}
