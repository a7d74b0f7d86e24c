package usage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracker(t *testing.T, limits map[string]int) (*Tracker, *miniredis.Miniredis, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	tracker := NewTracker(client, limits).WithClock(func() time.Time { return now })
	return tracker, mr, &now
}

func TestKey(t *testing.T) {
	assert.Equal(t, "usage:llm:2025-03", Key("llm", time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "usage:llm:2025-04", Key("llm", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTracker_ConsumeUntilQuota(t *testing.T) {
	tracker, mr, _ := setupTracker(t, map[string]int{"llm": 2})
	ctx := context.Background()

	require.NoError(t, tracker.Consume(ctx, "llm"))
	require.NoError(t, tracker.Consume(ctx, "llm"))
	assert.ErrorIs(t, tracker.Consume(ctx, "llm"), ErrQuotaExceeded)

	used, err := tracker.Used(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	remaining, err := tracker.Remaining(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	assert.True(t, mr.TTL("usage:llm:2025-03") > 0)
}

func TestTracker_ResetsOnMonthRollover(t *testing.T) {
	tracker, _, now := setupTracker(t, map[string]int{"llm": 1})
	ctx := context.Background()

	require.NoError(t, tracker.Consume(ctx, "llm"))
	assert.ErrorIs(t, tracker.Consume(ctx, "llm"), ErrQuotaExceeded)

	*now = now.Add(2 * time.Hour)

	assert.NoError(t, tracker.Consume(ctx, "llm"))
	remaining, err := tracker.Remaining(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestTracker_UnlimitedProvider(t *testing.T) {
	tracker, _, _ := setupTracker(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, tracker.Consume(ctx, "github"))
	}

	used, err := tracker.Used(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, 5, used)

	remaining, err := tracker.Remaining(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)
}

func TestTracker_UsedWithoutCalls(t *testing.T) {
	tracker, _, _ := setupTracker(t, map[string]int{"llm": 10})

	used, err := tracker.Used(context.Background(), "llm")
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	remaining, err := tracker.Remaining(context.Background(), "llm")
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}

func TestTracker_RedisUnavailable(t *testing.T) {
	tracker, mr, _ := setupTracker(t, map[string]int{"llm": 10})
	mr.Close()

	assert.Error(t, tracker.Consume(context.Background(), "llm"))
}
