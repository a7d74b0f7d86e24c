package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/scopa-ai/signal/internal/analysis"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Port:             "8080",
		ProxyBaseURL:     "http://localhost:8080",
		QueryMatchMode:   "loose",
		MaxResults:       20,
		EnrichMinLeads:   5,
		LLMModel:         "gpt-4o-mini",
		LLMMonthlyQuota:  100,
		StorageContainer: "signal-snapshots",
	}
}

func TestBuild_Minimal(t *testing.T) {
	app, err := Build(context.Background(), baseConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Collector)
	assert.NotNil(t, app.Proxy)
	assert.Nil(t, app.Analyzer)
	assert.Nil(t, app.Repo)
	assert.Nil(t, app.Processor)
	assert.Nil(t, app.Storage)
	assert.Nil(t, app.Usage)

	s := app.Server()
	assert.Nil(t, s.Opportunities)
	assert.Nil(t, s.Repo)
	assert.Nil(t, s.Alerts)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_WithLLMAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := baseConfig()
	cfg.LLMAPIKey = "sk-test"
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.SnapshotDir = t.TempDir()

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Analyzer)
	assert.NotNil(t, app.redis)
	require.NotNil(t, app.Storage)
	require.NotNil(t, app.Usage)

	remaining, err := app.Usage.Remaining(context.Background(), analysis.ProviderLLM)
	require.NoError(t, err)
	assert.Equal(t, 100, remaining)
	assert.Nil(t, app.Processor, "alerts need a database")
	assert.NotNil(t, app.Server().Opportunities)
}

func TestBuild_BadRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "not-a-url"

	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}
