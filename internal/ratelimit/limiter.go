package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Source keys shared by the scanners
const (
	Reddit     = "reddit"
	Twitter    = "twitter"
	HackerNews = "hackernews"
	GitHub     = "github"
)

// DefaultInterval applies to sources without an explicit interval
const DefaultInterval = time.Second

// DefaultIntervals is the minimum spacing between two calls to the same source
var DefaultIntervals = map[string]time.Duration{
	Reddit:     2 * time.Second,
	Twitter:    2 * time.Second,
	HackerNews: time.Second,
	GitHub:     time.Second,
}

// Limiter enforces a per-source floor between calls. Calls to different
// sources never wait on each other.
type Limiter struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	limiters  map[string]*rate.Limiter
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter
type Option func(*Limiter)

// WithInterval overrides the minimum interval for one source. Zero disables limiting.
func WithInterval(source string, d time.Duration) Option {
	return func(l *Limiter) {
		l.intervals[strings.ToLower(source)] = d
	}
}

// WithClock replaces the wall clock and the sleep function (used by tests)
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New creates a limiter seeded with DefaultIntervals
func New(opts ...Option) *Limiter {
	l := &Limiter{
		intervals: make(map[string]time.Duration, len(DefaultIntervals)),
		limiters:  make(map[string]*rate.Limiter),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for source, d := range DefaultIntervals {
		l.intervals[source] = d
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the configured minimum interval for a source
func (l *Limiter) Interval(source string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intervalLocked(strings.ToLower(source))
}

func (l *Limiter) intervalLocked(source string) time.Duration {
	if d, ok := l.intervals[source]; ok {
		return d
	}
	return DefaultInterval
}

func (l *Limiter) limiterFor(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[source]; ok {
		return lim
	}

	limit := rate.Inf
	if d := l.intervalLocked(source); d > 0 {
		limit = rate.Every(d)
	}
	lim := rate.NewLimiter(limit, 1)
	l.limiters[source] = lim
	return lim
}

// Wait blocks until the source's minimum interval has passed since its last
// admitted call. Concurrent callers for one source are admitted one interval apart.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	source = strings.ToLower(source)
	lim := l.limiterFor(source)

	now := l.now()
	reservation := lim.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	logrus.Debugf("Rate limiting %s: waiting %v", source, delay)
	if err := l.sleep(ctx, delay); err != nil {
		reservation.CancelAt(l.now())
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
