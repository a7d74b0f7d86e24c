package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scopa-ai/signal/internal/analysis"
	"github.com/scopa-ai/signal/internal/metrics"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/sirupsen/logrus"
)

// OpportunityThreshold is the score an analysis must exceed to notify the user
const OpportunityThreshold = 7.0

// Store is the persistence the processor needs
type Store interface {
	ListEnabledAlerts(ctx context.Context) ([]models.Alert, error)
	InsertAlertLog(ctx context.Context, log models.AlertLog) error
	UpdateAlertChecked(ctx context.Context, alertID string, at time.Time) error
	InsertNotification(ctx context.Context, n models.Notification) error
	UpdateAlertNotified(ctx context.Context, alertID string, at time.Time) error
}

// Analyzer returns the model's free-text analysis of a keyword
type Analyzer interface {
	AnalyzeAlert(ctx context.Context, keyword string) (string, error)
}

// Notifier pushes a stored notification to external channels
type Notifier interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// Archive keeps a JSON record of each batch
type Archive interface {
	Store(ctx context.Context, name string, data []byte) error
}

// Result is the outcome of checking one alert
type Result struct {
	AlertID          string  `json:"alertId"`
	Keyword          string  `json:"keyword"`
	Success          bool    `json:"success"`
	Score            float64 `json:"score"`
	HasOpportunity   bool    `json:"hasOpportunity"`
	Notified         bool    `json:"notified"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	Error            string  `json:"error,omitempty"`
}

// Summary aggregates one batch run
type Summary struct {
	Processed          int      `json:"processed"`
	Successful         int      `json:"successful"`
	Failed             int      `json:"failed"`
	OpportunitiesFound int      `json:"opportunitiesFound"`
	Results            []Result `json:"results"`
}

// Processor checks every due alert and records logs and notifications
type Processor struct {
	store    Store
	analyzer Analyzer
	notifier Notifier
	archive  Archive
	now      func() time.Time
}

type Option func(*Processor)

// WithNotifier delivers notifications beyond the in-app record
func WithNotifier(n Notifier) Option {
	return func(p *Processor) {
		p.notifier = n
	}
}

// WithArchive stores every non-empty batch summary
func WithArchive(a Archive) Option {
	return func(p *Processor) {
		p.archive = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(store Store, analyzer Analyzer, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		analyzer: analyzer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads enabled alerts, checks the due ones concurrently and returns the
// batch summary. Only a failure to load alerts is returned as an error.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	alerts, err := p.store.ListEnabledAlerts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load alerts: %w", err)
	}

	now := p.now()
	var due []models.Alert
	for _, alert := range alerts {
		if alert.Enabled && ShouldProcessAlert(alert, now) {
			due = append(due, alert)
		}
	}

	logrus.Infof("Processing %d of %d enabled alerts", len(due), len(alerts))

	results := make([]Result, len(due))
	var wg sync.WaitGroup
	for i, alert := range due {
		wg.Add(1)
		go func(i int, alert models.Alert) {
			defer wg.Done()
			results[i] = p.process(ctx, alert)
		}(i, alert)
	}
	wg.Wait()

	summary := Summary{Processed: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		if r.Notified {
			summary.OpportunitiesFound++
		}
	}

	logrus.Infof("Alert batch complete: %d processed, %d successful, %d failed, %d opportunities",
		summary.Processed, summary.Successful, summary.Failed, summary.OpportunitiesFound)

	p.archiveBatch(ctx, now, summary)
	return summary, nil
}

type batchRecord struct {
	StartedAt time.Time `json:"startedAt"`
	Summary
}

func (p *Processor) archiveBatch(ctx context.Context, startedAt time.Time, summary Summary) {
	if p.archive == nil || summary.Processed == 0 {
		return
	}

	data, err := json.Marshal(batchRecord{StartedAt: startedAt.UTC(), Summary: summary})
	if err != nil {
		logrus.Errorf("Failed to marshal alert batch: %v", err)
		return
	}
	if err := p.archive.Store(ctx, BatchName(startedAt), data); err != nil {
		logrus.Errorf("Failed to archive alert batch: %v", err)
	}
}

// BatchName returns the archive key for an alert batch
func BatchName(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("alerts/%s/%s-%s.json", at.Format("2006-01-02"), at.Format("150405"), uuid.NewString()[:8])
}

func (p *Processor) process(ctx context.Context, alert models.Alert) Result {
	start := p.now()
	result := Result{AlertID: alert.ID, Keyword: alert.Keyword}

	text, err := p.analyzer.AnalyzeAlert(ctx, alert.Keyword)
	if err != nil {
		return p.fail(ctx, alert, result, err)
	}

	analyzed := analysis.ParseAlertAnalysis(text).Value
	result.Score = analyzed.Score
	result.HasOpportunity = analyzed.HasOpportunity

	checkedAt := p.now()
	result.ProcessingTimeMs = checkedAt.Sub(start).Milliseconds()

	log := models.AlertLog{
		ID:                uuid.NewString(),
		AlertID:           alert.ID,
		Score:             analyzed.Score,
		Summary:           analyzed.Summary,
		OpportunitiesData: analyzed.Opportunities,
		ProcessingTimeMs:  result.ProcessingTimeMs,
		CreatedAt:         checkedAt,
	}
	if err := p.store.InsertAlertLog(ctx, log); err != nil {
		return p.fail(ctx, alert, result, err)
	}
	if err := p.store.UpdateAlertChecked(ctx, alert.ID, checkedAt); err != nil {
		return p.fail(ctx, alert, result, err)
	}

	if analyzed.HasOpportunity && analyzed.Score > OpportunityThreshold {
		if err := p.notifyOpportunity(ctx, alert, analyzed, log.ID, checkedAt); err != nil {
			return p.fail(ctx, alert, result, err)
		}
		result.Notified = true
		metrics.AlertOpportunity()
	}

	result.Success = true
	metrics.AlertProcessed(true)
	logrus.Debugf("Alert %s (%q) scored %.1f", alert.ID, alert.Keyword, analyzed.Score)
	return result
}

func (p *Processor) notifyOpportunity(ctx context.Context, alert models.Alert, analyzed analysis.AlertAnalysis, logID string, at time.Time) error {
	data, err := json.Marshal(map[string]any{
		"keyword":            alert.Keyword,
		"score":              analyzed.Score,
		"opportunitiesCount": analyzed.OpportunitiesCount,
		"alertLogId":         logID,
	})
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    alert.UserID,
		AlertID:   alert.ID,
		Type:      models.NotificationOpportunity,
		Title:     fmt.Sprintf("New opportunity for %q", alert.Keyword),
		Message:   analyzed.Summary,
		Data:      data,
		CreatedAt: at,
	}
	if err := p.store.InsertNotification(ctx, n); err != nil {
		return err
	}
	if err := p.store.UpdateAlertNotified(ctx, alert.ID, at); err != nil {
		return err
	}

	p.deliver(ctx, n)
	return nil
}

// fail records an error notification for the alert's owner. last_checked is
// left alone so the alert stays due on the next run.
func (p *Processor) fail(ctx context.Context, alert models.Alert, result Result, cause error) Result {
	logrus.Errorf("Alert %s (%q) failed: %v", alert.ID, alert.Keyword, cause)
	metrics.AlertProcessed(false)

	result.Success = false
	result.Notified = false
	result.Error = cause.Error()

	data, _ := json.Marshal(map[string]string{"keyword": alert.Keyword, "error": cause.Error()})
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    alert.UserID,
		AlertID:   alert.ID,
		Type:      models.NotificationError,
		Title:     fmt.Sprintf("Alert check failed for %q", alert.Keyword),
		Message:   fmt.Sprintf("We could not check %q this time and will retry on the next run.", alert.Keyword),
		Data:      data,
		CreatedAt: p.now(),
	}
	if err := p.store.InsertNotification(ctx, n); err != nil {
		logrus.Errorf("Failed to record error notification for alert %s: %v", alert.ID, err)
		return result
	}

	p.deliver(ctx, n)
	return result
}

func (p *Processor) deliver(ctx context.Context, n models.Notification) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Deliver(ctx, n); err != nil {
		logrus.Warnf("Failed to deliver notification %s: %v", n.ID, err)
	}
}
