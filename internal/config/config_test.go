package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:9090", cfg.ProxyBaseURL)
	assert.Equal(t, "loose", cfg.QueryMatchMode)
	assert.Equal(t, 2*time.Second, cfg.RedditPause)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.LLMEnabled())
	assert.Empty(t, cfg.DisabledSources)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("QUERY_MATCH_MODE", "STRICT")
	t.Setenv("DISABLED_SOURCES", "twitter, github ,")
	t.Setenv("REDDIT_PAUSE", "500ms")
	t.Setenv("MAX_RESULTS", "not-a-number")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.QueryMatchMode)
	assert.Equal(t, []string{"twitter", "github"}, cfg.DisabledSources)
	assert.True(t, cfg.SourceDisabled("GitHub"))
	assert.False(t, cfg.SourceDisabled("reddit"))
	assert.Equal(t, 500*time.Millisecond, cfg.RedditPause)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.True(t, cfg.LLMEnabled())
	assert.False(t, cfg.Matcher()("react developer", "react vue angular"))
}

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown match mode",
			mutate:  func(c *Config) { c.QueryMatchMode = "fuzzy" },
			wantErr: "QUERY_MATCH_MODE",
		},
		{
			name:    "cron endpoint without secret",
			mutate:  func(c *Config) { c.CronSecret = "" },
			wantErr: "CRON_SECRET",
		},
		{
			name: "cron endpoint disabled without secret",
			mutate: func(c *Config) {
				c.CronSecret = ""
				c.EnableCronEndpoint = false
			},
		},
		{
			name:    "email without smtp",
			mutate:  func(c *Config) { c.EmailFrom = "alerts@example.com" },
			wantErr: "SMTP",
		},
		{
			name:    "non-positive max results",
			mutate:  func(c *Config) { c.MaxResults = 0 },
			wantErr: "MAX_RESULTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				QueryMatchMode:     "loose",
				MaxResults:         20,
				EnableCronEndpoint: true,
				CronSecret:         "s3cret",
			}
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
