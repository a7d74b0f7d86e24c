package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scopa-ai/signal/internal/alerts"
	"github.com/scopa-ai/signal/internal/database"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLeads struct {
	mock.Mock
}

func (m *MockLeads) FindRealLeads(ctx context.Context, query string, mode models.SearchMode) []models.Lead {
	leads, _ := m.Called(ctx, query, mode).Get(0).([]models.Lead)
	return leads
}

func (m *MockLeads) GetMetrics() string {
	return m.Called().String(0)
}

type MockOpportunities struct {
	mock.Mock
}

func (m *MockOpportunities) FindOpportunities(ctx context.Context, interest string) ([]models.Opportunity, error) {
	args := m.Called(ctx, interest)
	opps, _ := args.Get(0).([]models.Opportunity)
	return opps, args.Error(1)
}

type MockAlerts struct {
	mock.Mock
}

func (m *MockAlerts) Run(ctx context.Context) (alerts.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(alerts.Summary), args.Error(1)
}

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepo) ListAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	args := m.Called(ctx, userID)
	alerts, _ := args.Get(0).([]models.Alert)
	return alerts, args.Error(1)
}

func (m *MockRepo) CreateAlert(ctx context.Context, userID, keyword string, frequency models.Frequency) (models.Alert, error) {
	args := m.Called(ctx, userID, keyword, frequency)
	return args.Get(0).(models.Alert), args.Error(1)
}

func (m *MockRepo) DeleteAlert(ctx context.Context, userID, alertID string) error {
	return m.Called(ctx, userID, alertID).Error(0)
}

func (m *MockRepo) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	n, _ := args.Get(0).([]models.Notification)
	return n, args.Error(1)
}

func (m *MockRepo) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func (m *MockRepo) SaveLead(ctx context.Context, userID string, lead models.Lead) (models.SavedLead, error) {
	args := m.Called(ctx, userID, lead)
	return args.Get(0).(models.SavedLead), args.Error(1)
}

func (m *MockRepo) UpdateSavedLead(ctx context.Context, userID, leadID string, status models.LeadStatus, notes *string) error {
	return m.Called(ctx, userID, leadID, status, notes).Error(0)
}

func (m *MockRepo) ListSavedLeads(ctx context.Context, userID string) ([]models.SavedLead, error) {
	args := m.Called(ctx, userID)
	leads, _ := args.Get(0).([]models.SavedLead)
	return leads, args.Error(1)
}

func (m *MockRepo) DeleteSavedLead(ctx context.Context, userID, leadID string) error {
	return m.Called(ctx, userID, leadID).Error(0)
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	repo := &MockRepo{}
	repo.On("Ping", mock.Anything).Return(nil).Once()
	repo.On("Ping", mock.Anything).Return(errors.New("down")).Once()

	s := &Server{Repo: repo, Now: func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }}

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","timestamp":"2025-03-10T12:00:00Z","database":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestSearch(t *testing.T) {
	finder := &MockLeads{}
	finder.On("FindRealLeads", mock.Anything, "react developer", models.ModeOpportunity).
		Return([]models.Lead{{ID: "reddit_1", FitScore: 8}})

	s := &Server{Leads: finder}
	rec := do(t, s, http.MethodPost, "/api/search", `{"query":" react developer ","mode":"opportunity"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ModeOpportunity, resp.Mode)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "reddit_1", resp.Leads[0].ID)
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	finder := &MockLeads{}
	finder.On("FindRealLeads", mock.Anything, "crm", models.ModeLead).Return(nil)

	rec := do(t, &Server{Leads: finder}, http.MethodPost, "/api/search", `{"query":"crm"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"leads":[]`)
}

func TestSearch_BadRequest(t *testing.T) {
	rec := do(t, &Server{Leads: &MockLeads{}}, http.MethodPost, "/api/search", `{"query":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, &Server{}, http.MethodPost, "/api/search", `{"query":"crm"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	finder := &MockLeads{}
	finder.On("GetMetrics").Return(`{"total_runs":3}`)

	rec := do(t, &Server{Leads: finder}, http.MethodGet, "/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_runs":3}`, rec.Body.String())
}

func TestOpportunities(t *testing.T) {
	opps := &MockOpportunities{}
	opps.On("FindOpportunities", mock.Anything, "pet care").
		Return([]models.Opportunity{{ID: "opp_1", ProblemStatement: "Booking is painful"}}, nil)
	opps.On("FindOpportunities", mock.Anything, "broken").Return(nil, errors.New("llm down"))

	s := &Server{Opportunities: opps}

	rec := do(t, s, http.MethodPost, "/api/opportunities", `{"interest":"pet care"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booking is painful")

	rec = do(t, s, http.MethodPost, "/api/opportunities", `{"interest":"broken"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerAlerts(t *testing.T) {
	runner := &MockAlerts{}
	runner.On("Run", mock.Anything).Return(alerts.Summary{Processed: 2, Successful: 1, Failed: 1, Results: []alerts.Result{}}, nil)

	s := &Server{Alerts: runner, CronSecret: "s3cret", EnableCronEndpoint: true}

	tests := []struct {
		name       string
		method     string
		auth       string
		wantStatus int
	}{
		{"missing token", http.MethodPost, "", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "Basic s3cret", http.StatusUnauthorized},
		{"post", http.MethodPost, "Bearer s3cret", http.StatusOK},
		{"get", http.MethodGet, "Bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, "/api/cron/trigger-alerts", "", map[string]string{"Authorization": tt.auth})
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var body struct {
					Success bool           `json:"success"`
					Summary alerts.Summary `json:"summary"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.True(t, body.Success)
				assert.Equal(t, 2, body.Summary.Processed)
			}
		})
	}

	runner.AssertNumberOfCalls(t, "Run", 2)
}

func TestTriggerAlerts_Disabled(t *testing.T) {
	s := &Server{Alerts: &MockAlerts{}, CronSecret: "s3cret"}
	rec := do(t, s, http.MethodPost, "/api/cron/trigger-alerts", "", map[string]string{"Authorization": "Bearer s3cret"})
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestTriggerAlerts_RunError(t *testing.T) {
	runner := &MockAlerts{}
	runner.On("Run", mock.Anything).Return(alerts.Summary{}, errors.New("db down"))

	s := &Server{Alerts: runner, CronSecret: "s3cret", EnableCronEndpoint: true}
	rec := do(t, s, http.MethodPost, "/api/cron/trigger-alerts", "", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserRoutes_RequireUserAndRepo(t *testing.T) {
	rec := do(t, &Server{Repo: &MockRepo{}}, http.MethodGet, "/api/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, &Server{}, http.MethodGet, "/api/leads", "", map[string]string{userHeader: "u1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSavedLeads(t *testing.T) {
	user := map[string]string{userHeader: "u1"}
	notes := "call on Monday"

	repo := &MockRepo{}
	repo.On("SaveLead", mock.Anything, "u1", mock.MatchedBy(func(l models.Lead) bool {
		return l.ID == "reddit_1" && l.Status == models.StatusInDiscussion
	})).Return(models.SavedLead{Lead: models.Lead{ID: "reddit_1", Status: models.StatusInDiscussion}, UserID: "u1"}, nil)
	repo.On("UpdateSavedLead", mock.Anything, "u1", "reddit_1", models.StatusWon, &notes).Return(nil)
	repo.On("UpdateSavedLead", mock.Anything, "u1", "gone", models.StatusLost, (*string)(nil)).Return(database.ErrNotFound)
	repo.On("ListSavedLeads", mock.Anything, "u1").Return([]models.SavedLead{{Lead: models.Lead{ID: "reddit_1"}}}, nil)
	repo.On("DeleteSavedLead", mock.Anything, "u1", "reddit_1").Return(nil)

	s := &Server{Repo: repo}

	rec := do(t, s, http.MethodPost, "/api/leads", `{"id":"reddit_1","status":"in discussion"}`, user)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/leads", `{"id":"reddit_1","status":"maybe"}`, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/leads/reddit_1", `{"status":"won","notes":"call on Monday"}`, user)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/leads/reddit_1", `{"status":"pending"}`, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/leads/gone", `{"status":"Lost"}`, user)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/leads", "", user)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reddit_1")

	rec = do(t, s, http.MethodDelete, "/api/leads/reddit_1", "", user)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAlertsCRUD(t *testing.T) {
	user := map[string]string{userHeader: "u1"}

	repo := &MockRepo{}
	repo.On("CreateAlert", mock.Anything, "u1", "invoice automation", models.FrequencyWeekly).
		Return(models.Alert{ID: "a1", Keyword: "invoice automation", Frequency: models.FrequencyWeekly, Enabled: true}, nil)
	repo.On("CreateAlert", mock.Anything, "u1", "crm", models.FrequencyDaily).
		Return(models.Alert{ID: "a2", Keyword: "crm", Frequency: models.FrequencyDaily, Enabled: true}, nil)
	repo.On("ListAlerts", mock.Anything, "u1").Return([]models.Alert{{ID: "a1"}}, nil)
	repo.On("DeleteAlert", mock.Anything, "u1", "a1").Return(nil)
	repo.On("DeleteAlert", mock.Anything, "u1", "other").Return(database.ErrNotFound)

	s := &Server{Repo: repo}

	rec := do(t, s, http.MethodPost, "/api/alerts", `{"keyword":"invoice automation","frequency":"Weekly"}`, user)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/alerts", `{"keyword":"crm"}`, user)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/alerts", `{"keyword":"crm","frequency":"hourly"}`, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/alerts", "", user)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/alerts/a1", "", user)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/alerts/other", "", user)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications(t *testing.T) {
	user := map[string]string{userHeader: "u1"}

	repo := &MockRepo{}
	repo.On("ListNotifications", mock.Anything, "u1", true).
		Return([]models.Notification{{ID: "n1", Type: models.NotificationOpportunity}}, nil)
	repo.On("ListNotifications", mock.Anything, "u1", false).Return(nil, errors.New("db down"))
	repo.On("MarkNotificationRead", mock.Anything, "u1", "n1").Return(nil)

	s := &Server{Repo: repo}

	rec := do(t, s, http.MethodGet, "/api/notifications?unread=true", "", user)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"n1"`)

	rec = do(t, s, http.MethodGet, "/api/notifications", "", user)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/notifications/n1/read", "", user)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
