package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/scopa-ai/signal/internal/analysis"
	"github.com/scopa-ai/signal/internal/storage"
	"github.com/scopa-ai/signal/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAndShowSnapshots(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Store(ctx, "searches/2025-03-10/120000-lead-abcd1234.json", []byte(`{"query":"crm"}`)))
	require.NoError(t, store.Store(ctx, "alerts/2025-03-10/120000-ef567890.json", []byte(`{"processed":1}`)))

	var out bytes.Buffer
	require.NoError(t, listSnapshots(ctx, store, "alerts/", &out))
	assert.Equal(t, "alerts/2025-03-10/120000-ef567890.json\n", out.String())

	out.Reset()
	require.NoError(t, listSnapshots(ctx, store, "", &out))
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 2)

	out.Reset()
	require.NoError(t, showSnapshot(ctx, store, "searches/2025-03-10/120000-lead-abcd1234.json", &out))
	assert.Equal(t, "{\"query\":\"crm\"}\n", out.String())
}

func TestListSnapshots_Empty(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listSnapshots(context.Background(), store, "searches/", &out))
	assert.Equal(t, "no snapshots\n", out.String())
}

func TestShowSnapshot_Missing(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	err = showSnapshot(context.Background(), store, "searches/nope.json", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestPrintUsage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tracker := usage.NewTracker(client, map[string]int{analysis.ProviderLLM: 10}).
		WithClock(func() time.Time { return now })
	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Consume(context.Background(), analysis.ProviderLLM))
	}

	var out bytes.Buffer
	require.NoError(t, printUsage(context.Background(), tracker, now, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"llm", "2025-03", "3", "7"}, strings.Fields(lines[1]))
}

func TestPrintUsage_Unlimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var out bytes.Buffer
	require.NoError(t, printUsage(context.Background(), usage.NewTracker(client, nil), time.Now(), &out))
	assert.Contains(t, out.String(), "unlimited")
}
