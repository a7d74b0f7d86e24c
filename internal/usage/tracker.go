package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "usage"

	// keys outlive their month so the previous month stays inspectable
	keyTTL = 62 * 24 * time.Hour
)

// ErrQuotaExceeded is returned by Consume once a provider's monthly quota is used up
var ErrQuotaExceeded = errors.New("monthly quota exceeded")

// Tracker counts third-party calls per provider per calendar month in Redis.
// A new month starts a new key, so the quota resets on rollover.
type Tracker struct {
	client redis.UniversalClient
	limits map[string]int
	now    func() time.Time
}

// NewTracker creates a tracker; limits maps provider name to its monthly quota.
// Providers without a limit are unlimited.
func NewTracker(client redis.UniversalClient, limits map[string]int) *Tracker {
	return &Tracker{
		client: client,
		limits: limits,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to pick the month bucket
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Key returns the Redis key for provider in the month containing at
func Key(provider string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, provider, at.UTC().Format("2006-01"))
}

// Consume records one call for provider. It returns ErrQuotaExceeded (and
// does not count the call) when the monthly quota is already used.
func (t *Tracker) Consume(ctx context.Context, provider string) error {
	key := Key(provider, t.now())

	pipe := t.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Warnf("Failed to increment usage counter %s: %v", key, err)
		return fmt.Errorf("increment usage counter: %w", err)
	}

	limit, limited := t.limits[provider]
	if limited && incr.Val() > int64(limit) {
		if err := t.client.Decr(ctx, key).Err(); err != nil {
			logrus.Warnf("Failed to roll back usage counter %s: %v", key, err)
		}
		return ErrQuotaExceeded
	}

	return nil
}

// Used returns the number of calls recorded for provider this month
func (t *Tracker) Used(ctx context.Context, provider string) (int, error) {
	n, err := t.client.Get(ctx, Key(provider, t.now())).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	return n, nil
}

// Remaining returns the calls left this month, or -1 for unlimited providers
func (t *Tracker) Remaining(ctx context.Context, provider string) (int, error) {
	limit, limited := t.limits[provider]
	if !limited {
		return -1, nil
	}
	used, err := t.Used(ctx, provider)
	if err != nil {
		return 0, err
	}
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}
