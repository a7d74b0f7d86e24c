package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/scopa-ai/signal/internal/heuristics"
	"github.com/scopa-ai/signal/internal/metrics"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/scopa-ai/signal/internal/sources"
	"github.com/scopa-ai/signal/internal/storage"
	"github.com/sirupsen/logrus"
)

// DefaultMaxResults is the number of leads returned to the caller
const DefaultMaxResults = 20

// Enricher supplements a thin result set with model-suggested leads
type Enricher interface {
	EnrichLeads(ctx context.Context, query string, existing []models.Lead) ([]models.Lead, error)
}

// RealDataCollector fans a query out to every enabled source and merges the
// results into one ranked list.
type RealDataCollector struct {
	sources    []sources.Source
	storage    storage.StorageInterface
	enricher   Enricher
	minLeads   int
	maxResults int
	now        func() time.Time
	metrics    *Metrics
	mu         sync.RWMutex
}

// Metrics holds collector metrics for the /stats endpoint
type Metrics struct {
	TotalRuns       int            `json:"total_runs"`
	TotalLeads      int            `json:"total_leads"`
	EnrichedLeads   int            `json:"enriched_leads"`
	LastQuery       string         `json:"last_query"`
	LastMode        string         `json:"last_mode"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	SourceMetrics   map[string]int `json:"source_metrics"`
	BudgetBreakdown map[string]int `json:"budget_breakdown"`
}

// Option configures a RealDataCollector
type Option func(*RealDataCollector)

// WithStorage archives every result set as a JSON snapshot
func WithStorage(s storage.StorageInterface) Option {
	return func(c *RealDataCollector) {
		c.storage = s
	}
}

// WithEnricher asks e for extra leads when a LEAD search returns fewer than minLeads
func WithEnricher(e Enricher, minLeads int) Option {
	return func(c *RealDataCollector) {
		c.enricher = e
		c.minLeads = minLeads
	}
}

func WithMaxResults(n int) Option {
	return func(c *RealDataCollector) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *RealDataCollector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewRealDataCollector creates a collector over the given sources
func NewRealDataCollector(srcs []sources.Source, opts ...Option) *RealDataCollector {
	c := &RealDataCollector{
		sources:    srcs,
		maxResults: DefaultMaxResults,
		now:        time.Now,
		metrics: &Metrics{
			SourceMetrics:   make(map[string]int),
			BudgetBreakdown: make(map[string]int),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultSources builds the scanners described by cfg, sharing one limiter
func DefaultSources(cfg *config.Config, limiter *ratelimit.Limiter) []sources.Source {
	matcher := sources.WithMatcher(cfg.Matcher())

	all := []sources.Source{
		sources.NewRedditSource(cfg.ProxyBaseURL, limiter, matcher, sources.WithPause(cfg.RedditPause)),
		sources.NewHackerNewsSource(limiter, matcher),
		sources.NewGitHubSource(limiter, matcher, sources.WithToken(cfg.GitHubToken)),
		sources.NewTwitterSource(cfg.ProxyBaseURL, limiter, matcher),
	}

	var enabled []sources.Source
	for _, src := range all {
		if cfg.SourceDisabled(src.GetName()) {
			logrus.Infof("Source %s disabled by configuration", src.GetName())
			continue
		}
		enabled = append(enabled, src)
	}
	return enabled
}

type sourceResult struct {
	name  string
	leads []models.Lead
}

// FindRealLeads runs every enabled source that supports mode concurrently and
// returns at most maxResults leads ordered by fit score, then recency.
func (c *RealDataCollector) FindRealLeads(ctx context.Context, query string, mode models.SearchMode) []models.Lead {
	start := c.now()
	logrus.Infof("Starting %s search for %q", mode, query)

	var wg sync.WaitGroup
	resultsChan := make(chan sourceResult, len(c.sources))

	for _, source := range c.sources {
		if !source.IsEnabled() || !source.Supports(mode) {
			logrus.Debugf("Skipping source %s for %s search", source.GetName(), mode)
			continue
		}

		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			leads, err := src.FetchLeads(ctx, query, mode)
			if err != nil {
				logrus.Errorf("Error fetching from %s: %v", src.GetName(), err)
			}

			logrus.Infof("Found %d leads from %s", len(leads), src.GetName())
			resultsChan <- sourceResult{name: src.GetName(), leads: leads}
		}(source)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var allLeads []models.Lead
	perSource := make(map[string]int)
	for result := range resultsChan {
		perSource[result.name] += len(result.leads)
		metrics.AddSourceLeads(result.name, len(result.leads))
		allLeads = append(allLeads, result.leads...)
	}

	logrus.Infof("Collected %d total leads from all sources", len(allLeads))

	enriched := 0
	if c.enricher != nil && mode == models.ModeLead && len(allLeads) < c.minLeads {
		extra, err := c.enricher.EnrichLeads(ctx, query, allLeads)
		if err != nil {
			logrus.Warnf("Lead enrichment skipped: %v", err)
		} else {
			enriched = len(extra)
			perSource[string(models.SourceAI)] += enriched
			allLeads = append(allLeads, extra...)
		}
	}

	ranked := Rank(allLeads, c.maxResults)
	duration := c.now().Sub(start)

	metrics.ObserveScan(string(mode), duration)
	c.updateMetrics(query, mode, ranked, perSource, enriched, duration)
	c.archive(ctx, query, mode, ranked)

	logrus.Infof("%s search for %q completed in %v with %d leads", mode, query, duration, len(ranked))
	return ranked
}

// Rank stable-sorts leads by fit score (desc) then age (newest first) and
// truncates to max. Leads whose postedAt cannot be parsed sort as oldest.
func Rank(leads []models.Lead, max int) []models.Lead {
	type ranked struct {
		lead    models.Lead
		minutes int
	}

	items := make([]ranked, len(leads))
	for i, lead := range leads {
		items[i] = ranked{lead: lead, minutes: heuristics.PostedAtMinutes(lead.PostedAt)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].lead.FitScore != items[j].lead.FitScore {
			return items[i].lead.FitScore > items[j].lead.FitScore
		}
		return items[i].minutes < items[j].minutes
	})

	if max > 0 && len(items) > max {
		items = items[:max]
	}

	out := make([]models.Lead, len(items))
	for i, item := range items {
		out[i] = item.lead
	}
	return out
}

func (c *RealDataCollector) updateMetrics(query string, mode models.SearchMode, leads []models.Lead, perSource map[string]int, enriched int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.TotalRuns++
	c.metrics.TotalLeads = len(leads)
	c.metrics.EnrichedLeads = enriched
	c.metrics.LastQuery = query
	c.metrics.LastMode = string(mode)
	c.metrics.LastRun = c.now()
	c.metrics.LastRunDuration = duration.String()

	c.metrics.SourceMetrics = perSource
	c.metrics.BudgetBreakdown = make(map[string]int)
	for _, lead := range leads {
		c.metrics.BudgetBreakdown[string(lead.Budget)]++
	}
}

type snapshot struct {
	Query       string        `json:"query"`
	Mode        string        `json:"mode"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Leads       []models.Lead `json:"leads"`
}

func (c *RealDataCollector) archive(ctx context.Context, query string, mode models.SearchMode, leads []models.Lead) {
	if c.storage == nil {
		return
	}

	now := c.now().UTC()
	data, err := json.Marshal(snapshot{Query: query, Mode: string(mode), GeneratedAt: now, Leads: leads})
	if err != nil {
		logrus.Errorf("Failed to marshal search snapshot: %v", err)
		return
	}

	name := SnapshotName(now, mode)
	if err := c.storage.Store(ctx, name, data); err != nil {
		logrus.Errorf("Failed to archive search snapshot: %v", err)
	}
}

// SnapshotName returns the archive key for a search run
func SnapshotName(at time.Time, mode models.SearchMode) string {
	return fmt.Sprintf("searches/%s/%s-%s-%s.json",
		at.Format("2006-01-02"),
		at.Format("150405"),
		strings.ToLower(string(mode)),
		uuid.NewString()[:8])
}

// GetMetrics returns current metrics as JSON
func (c *RealDataCollector) GetMetrics() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, _ := json.MarshalIndent(c.metrics, "", "  ")
	return string(data)
}
