package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SearchMode selects which keyword lists and sub-sources a search uses
type SearchMode string

const (
	ModeLead        SearchMode = "LEAD"
	ModeOpportunity SearchMode = "OPPORTUNITY"
)

// ParseSearchMode accepts "lead"/"opportunity" in any case and defaults to LEAD
func ParseSearchMode(s string) SearchMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeOpportunity)) {
		return ModeOpportunity
	}
	return ModeLead
}

// LeadSource names the platform a lead was discovered on
type LeadSource string

const (
	SourceReddit     LeadSource = "Reddit"
	SourceHackerNews LeadSource = "HackerNews"
	SourceGitHub     LeadSource = "GitHub"
	SourceTwitter    LeadSource = "Twitter"
	SourceAI         LeadSource = "AI"
)

type BudgetCategory string

const (
	BudgetHigh    BudgetCategory = "High"
	BudgetMedium  BudgetCategory = "Medium"
	BudgetLow     BudgetCategory = "Low"
	BudgetUnknown BudgetCategory = "Unknown"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// LeadStatus tracks a saved lead through the sales pipeline
type LeadStatus string

const (
	StatusNew          LeadStatus = "New"
	StatusContacted    LeadStatus = "Contacted"
	StatusInDiscussion LeadStatus = "In Discussion"
	StatusWon          LeadStatus = "Won"
	StatusLost         LeadStatus = "Lost"
)

// ParseLeadStatus validates a status string (case-insensitive)
func ParseLeadStatus(s string) (LeadStatus, error) {
	for _, status := range []LeadStatus{StatusNew, StatusContacted, StatusInDiscussion, StatusWon, StatusLost} {
		if strings.EqualFold(strings.TrimSpace(s), string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid lead status %q", s)
}

// Lead represents a single prospect discovered on an external source
type Lead struct {
	ID             string         `json:"id"` // source-prefixed, e.g. "reddit_<uuid>"
	ProspectName   string         `json:"prospectName"`
	Username       string         `json:"username"`
	RequestSummary string         `json:"requestSummary"`
	PostedAt       string         `json:"postedAt"` // human relative time, e.g. "3 hours ago"
	Source         LeadSource     `json:"source"`
	Location       string         `json:"location,omitempty"`
	FitScore       int            `json:"fitScore"` // 0-10
	Budget         BudgetCategory `json:"budget"`
	BudgetAmount   string         `json:"budgetAmount,omitempty"`
	Urgency        Urgency        `json:"urgency"`
	ContactInfo    string         `json:"contactInfo"`
	SourceURL      string         `json:"sourceUrl"`
	Status         LeadStatus     `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	AIEnriched     bool           `json:"aiEnriched,omitempty"`
}

// SavedLead is a lead persisted into a user's tracker list
type SavedLead struct {
	Lead
	UserID    string    `json:"userId"`
	SavedDate time.Time `json:"savedDate"`
}

// Opportunity is an LLM-authored market-gap record. Only best-effort parsed.
type Opportunity struct {
	ID               string   `json:"id"`
	ProblemStatement string   `json:"problemStatement"`
	OverallScore     float64  `json:"overallScore"`
	DemandSignal     float64  `json:"demandSignal"`
	MarketReadiness  float64  `json:"marketReadiness"`
	Competition      float64  `json:"competition"`
	EntryDifficulty  float64  `json:"entryDifficulty"`
	Evidence         []string `json:"evidence"`
	WhyItMatters     string   `json:"whyItMatters"`
	RedFlags         string   `json:"redFlags"`
	NextSteps        []string `json:"nextSteps"`
	TargetAudience   string   `json:"targetAudience,omitempty"`
	MarketSize       string   `json:"marketSize,omitempty"`
	Sources          []string `json:"sources,omitempty"`
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Alert is a user's recurring market watch on a keyword
type Alert struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	Keyword            string     `json:"keyword"`
	Frequency          Frequency  `json:"frequency"`
	LastChecked        *time.Time `json:"lastChecked,omitempty"`
	LastNotified       *time.Time `json:"lastNotified,omitempty"`
	Enabled            bool       `json:"enabled"`
	OpportunitiesFound int        `json:"opportunitiesFound"`
	SuccessRate        *float64   `json:"successRate,omitempty"`
	TotalChecks        int        `json:"totalChecks"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// AlertLog records the outcome of one scheduler check of one alert
type AlertLog struct {
	ID                string            `json:"id"`
	AlertID           string            `json:"alertId"`
	Score             float64           `json:"score"`
	Summary           string            `json:"summary"`
	OpportunitiesData []json.RawMessage `json:"opportunitiesData"`
	ProcessingTimeMs  int64             `json:"processingTimeMs"`
	CreatedAt         time.Time         `json:"createdAt"`
}

type NotificationType string

const (
	NotificationOpportunity NotificationType = "opportunity"
	NotificationError       NotificationType = "error"
)

// Notification is fanned out to a user when an alert finds something (or fails)
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	AlertID   string           `json:"alertId,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Profile holds the account details needed for notification delivery
type Profile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName,omitempty"`
	SubscriptionTier string    `json:"subscriptionTier"`
	CreatedAt        time.Time `json:"createdAt"`
}
