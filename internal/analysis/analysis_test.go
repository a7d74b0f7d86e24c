package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	response string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.response},
		}},
	}, nil
}

type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Consume(ctx context.Context, provider string) error {
	args := m.Called(ctx, provider)
	return args.Error(0)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", "Sure! {\"a\": {\"b\": 2}} hope this helps", `{"a": {"b": 2}}`, true},
		{"greedy across objects", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`, true},
		{"multiline", "{\n\"a\": 1\n}", "{\n\"a\": 1\n}", true},
		{"no braces", "no json here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAlertAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ok       bool
		expected AlertAnalysis
	}{
		{
			name:  "valid",
			input: "Here you go:\n{\"hasOpportunity\":true,\"score\":9,\"summary\":\"Big gap\",\"opportunitiesCount\":2}",
			ok:    true,
			expected: AlertAnalysis{
				HasOpportunity:     true,
				Score:              9,
				Summary:            "Big gap",
				OpportunitiesCount: 2,
			},
		},
		{
			name:     "no json",
			input:    "I could not analyze this keyword.",
			expected: AlertAnalysis{},
		},
		{
			name:     "two objects make invalid json",
			input:    `{"score":9} {"score":3}`,
			expected: AlertAnalysis{},
		},
		{
			name:     "wrong types",
			input:    `{"hasOpportunity":"yes","score":"high"}`,
			expected: AlertAnalysis{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseAlertAnalysis(tt.input)
			assert.Equal(t, tt.ok, result.OK)
			assert.Equal(t, tt.expected, result.Value)
			if !tt.ok {
				assert.NotEmpty(t, result.Reason)
				assert.False(t, result.Value.HasOpportunity)
				assert.Zero(t, result.Value.Score)
			}
		})
	}
}

func TestParseAlertAnalysis_KeepsOpportunitiesRaw(t *testing.T) {
	result := ParseAlertAnalysis(`{"hasOpportunity":true,"score":8,"opportunities":[{"title":"a"},{"title":"b","extra":[1,2]}]}`)
	require.True(t, result.OK)
	require.Len(t, result.Value.Opportunities, 2)
	assert.JSONEq(t, `{"title":"b","extra":[1,2]}`, string(result.Value.Opportunities[1]))
}

func TestParseOpportunities(t *testing.T) {
	result := ParseOpportunities("garbage")
	assert.False(t, result.OK)
	assert.NotNil(t, result.Value)
	assert.Empty(t, result.Value)

	result = ParseOpportunities(`{"something":"else"}`)
	assert.True(t, result.OK)
	assert.Empty(t, result.Value)
}

func TestAnalyzer_AnalyzeAlert(t *testing.T) {
	fake := &fakeChatClient{response: `{"hasOpportunity":false,"score":2}`}
	analyzer := NewAnalyzer(NewClientWith(fake, WithModel("test-model")), nil)

	text, err := analyzer.AnalyzeAlert(context.Background(), "invoice automation")
	require.NoError(t, err)
	assert.Equal(t, `{"hasOpportunity":false,"score":2}`, text)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, `"invoice automation"`)
	assert.Contains(t, req.Messages[1].Content, "hasOpportunity")
}

func TestAnalyzer_AnalyzeAlertError(t *testing.T) {
	analyzer := NewAnalyzer(NewClientWith(&fakeChatClient{err: errors.New("503")}), nil)

	_, err := analyzer.AnalyzeAlert(context.Background(), "x")
	assert.Error(t, err)
}

func TestAnalyzer_FindOpportunities(t *testing.T) {
	fake := &fakeChatClient{response: "```json\n" + `{"opportunities":[
		{"id":"crm-for-plumbers","problemStatement":"Plumbers juggle jobs in spreadsheets","overallScore":8.5,"evidence":["r/plumbing thread"],"nextSteps":["interview 10 plumbers"]},
		{"problemStatement":"No id here","overallScore":6}
	]}` + "\n```"}
	analyzer := NewAnalyzer(NewClientWith(fake), nil)

	opportunities, err := analyzer.FindOpportunities(context.Background(), "trades software")
	require.NoError(t, err)
	require.Len(t, opportunities, 2)
	assert.Equal(t, "crm-for-plumbers", opportunities[0].ID)
	assert.Equal(t, 8.5, opportunities[0].OverallScore)
	assert.Equal(t, []string{"r/plumbing thread"}, opportunities[0].Evidence)
	assert.True(t, strings.HasPrefix(opportunities[1].ID, "opp_"))
}

func TestAnalyzer_FindOpportunitiesUnparseable(t *testing.T) {
	analyzer := NewAnalyzer(NewClientWith(&fakeChatClient{response: "Sorry, I can't help."}), nil)

	opportunities, err := analyzer.FindOpportunities(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestAnalyzer_EnrichLeads(t *testing.T) {
	fake := &fakeChatClient{response: `{"leads":[
		{"prospectName":"Acme Dental","requestSummary":"Needs a booking site urgently, budget $3,000","fitScore":14,"contactInfo":"hello@acme.test","location":"Austin"},
		{"prospectName":"Empty","requestSummary":"   "}
	]}`}
	quota := &MockQuota{}
	quota.On("Consume", mock.Anything, ProviderLLM).Return(nil)

	analyzer := NewAnalyzer(NewClientWith(fake), quota)

	leads, err := analyzer.EnrichLeads(context.Background(), "web design", []models.Lead{{ProspectName: "Bob"}})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.True(t, strings.HasPrefix(lead.ID, "ai_"))
	assert.True(t, lead.AIEnriched)
	assert.Equal(t, models.SourceAI, lead.Source)
	assert.Equal(t, 10, lead.FitScore)
	assert.Equal(t, models.BudgetMedium, lead.Budget)
	assert.Equal(t, "$3,000", lead.BudgetAmount)
	assert.Equal(t, models.UrgencyHigh, lead.Urgency)
	assert.Equal(t, models.StatusNew, lead.Status)

	assert.Contains(t, fake.requests[0].Messages[1].Content, "Bob")
	quota.AssertExpectations(t)
}

func TestAnalyzer_EnrichLeadsQuotaExhausted(t *testing.T) {
	fake := &fakeChatClient{response: `{"leads":[]}`}
	quota := &MockQuota{}
	quota.On("Consume", mock.Anything, ProviderLLM).Return(errors.New("monthly quota exceeded"))

	leads, err := NewAnalyzer(NewClientWith(fake), quota).EnrichLeads(context.Background(), "x", nil)
	assert.Error(t, err)
	assert.Nil(t, leads)
	assert.Empty(t, fake.requests)
}

func TestNewClient_OpenAICompatibleEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "gemini-2.0-flash", req.Model)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: `{"ok":true}`},
			}},
		})
	}))
	defer server.Close()

	client := NewClient("sk-test", server.URL, WithModel("gemini-2.0-flash"))

	text, err := client.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
}

func TestClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClient("sk-test", server.URL).Complete(context.Background(), "s", "p")
	assert.Error(t, err)
}
