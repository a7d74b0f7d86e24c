package sources

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scopa-ai/signal/internal/heuristics"
	"github.com/scopa-ai/signal/internal/models"
)

// Source interface defines the contract for all lead scanners.
//
// FetchLeads never fails the whole scan because of one bad upstream response:
// implementations log the failure and return whatever they collected so far.
type Source interface {
	GetName() string
	IsEnabled() bool
	Supports(mode models.SearchMode) bool
	FetchLeads(ctx context.Context, query string, mode models.SearchMode) ([]models.Lead, error)
}

const (
	userAgent      = "Signal-Lead-Scanner/1.0"
	requestTimeout = 30 * time.Second
)

// Option customises a scanner
type Option func(*scanConfig)

type scanConfig struct {
	matcher heuristics.Matcher
	now     func() time.Time
	baseURL string
	token   string
	pause   time.Duration
}

func newScanConfig(baseURL string, opts []Option) scanConfig {
	cfg := scanConfig{
		matcher: heuristics.MatchesQuery,
		now:     time.Now,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMatcher swaps the query matcher (loose by default)
func WithMatcher(m heuristics.Matcher) Option {
	return func(c *scanConfig) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithClock sets the time source used for posted-at strings
func WithClock(now func() time.Time) Option {
	return func(c *scanConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBaseURL points the scanner at a different API host (useful for tests)
func WithBaseURL(url string) Option {
	return func(c *scanConfig) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithToken sets an API token where the source accepts one
func WithToken(token string) Option {
	return func(c *scanConfig) {
		c.token = token
	}
}

// WithPause sets the delay between sequential sub-source requests
func WithPause(d time.Duration) Option {
	return func(c *scanConfig) {
		c.pause = d
	}
}

func newRestyClient() *resty.Client {
	return resty.New().
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", userAgent)
}
