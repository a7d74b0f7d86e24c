package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/scopa-ai/signal/internal/alerts"
	"github.com/scopa-ai/signal/internal/database"
	"github.com/scopa-ai/signal/internal/metrics"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/proxy"
	"github.com/sirupsen/logrus"
)

// userHeader carries the caller's user id, set by the fronting auth layer
const userHeader = "X-User-ID"

// LeadFinder runs aggregated searches
type LeadFinder interface {
	FindRealLeads(ctx context.Context, query string, mode models.SearchMode) []models.Lead
	GetMetrics() string
}

// OpportunityFinder produces model-authored opportunities for an interest
type OpportunityFinder interface {
	FindOpportunities(ctx context.Context, interest string) ([]models.Opportunity, error)
}

// AlertRunner runs the due-alert batch
type AlertRunner interface {
	Run(ctx context.Context) (alerts.Summary, error)
}

// Repository is the per-user persistence behind the tracker, alert and
// notification routes.
type Repository interface {
	Ping(ctx context.Context) error

	ListAlerts(ctx context.Context, userID string) ([]models.Alert, error)
	CreateAlert(ctx context.Context, userID, keyword string, frequency models.Frequency) (models.Alert, error)
	DeleteAlert(ctx context.Context, userID, alertID string) error

	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	SaveLead(ctx context.Context, userID string, lead models.Lead) (models.SavedLead, error)
	UpdateSavedLead(ctx context.Context, userID, leadID string, status models.LeadStatus, notes *string) error
	ListSavedLeads(ctx context.Context, userID string) ([]models.SavedLead, error)
	DeleteSavedLead(ctx context.Context, userID, leadID string) error
}

// Server wires the HTTP routes to the services. Any dependency may be nil;
// its routes then answer 503.
type Server struct {
	Leads         LeadFinder
	Opportunities OpportunityFinder
	Alerts        AlertRunner
	Repo          Repository
	Proxy         *proxy.Handler

	CronSecret         string
	EnableCronEndpoint bool

	Now func() time.Time
}

// Router builds the mux router with every route mounted
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	if s.Proxy != nil {
		s.Proxy.Register(router)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/opportunities", s.handleOpportunities).Methods(http.MethodPost)

	if s.EnableCronEndpoint {
		api.HandleFunc("/cron/trigger-alerts", s.handleTriggerAlerts).Methods(http.MethodGet, http.MethodPost)
	}

	user := api.NewRoute().Subrouter()
	user.Use(s.requireUser, s.requireRepo)

	user.HandleFunc("/leads", s.handleListSavedLeads).Methods(http.MethodGet)
	user.HandleFunc("/leads", s.handleSaveLead).Methods(http.MethodPost)
	user.HandleFunc("/leads/{id}", s.handleUpdateSavedLead).Methods(http.MethodPatch)
	user.HandleFunc("/leads/{id}", s.handleDeleteSavedLead).Methods(http.MethodDelete)

	user.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	user.HandleFunc("/alerts", s.handleCreateAlert).Methods(http.MethodPost)
	user.HandleFunc("/alerts/{id}", s.handleDeleteAlert).Methods(http.MethodDelete)

	user.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	user.HandleFunc("/notifications/{id}/read", s.handleMarkRead).Methods(http.MethodPost)

	router.Use(logRequests)
	return router
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}

	if s.Repo != nil {
		if err := s.Repo.Ping(r.Context()); err != nil {
			logrus.Warnf("Health check database ping failed: %v", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		} else {
			body["database"] = "ok"
		}
	}

	writeJSON(w, status, body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Leads == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.Leads.GetMetrics()))
}

// handleTriggerAlerts runs the due-alert batch synchronously
func (s *Server) handleTriggerAlerts(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.Alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "alerts are not configured")
		return
	}

	summary, err := s.Alerts.Run(r.Context())
	if err != nil {
		logrus.Errorf("Alert trigger failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to process alerts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

func (s *Server) authorizedCron(r *http.Request) bool {
	if s.CronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.CronSecret)) == 1
}

type contextKey struct{}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, userID)))
	})
}

func (s *Server) requireRepo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Repo == nil {
			writeError(w, http.StatusServiceUnavailable, "database is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(contextKey{}).(string)
	return id
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps repository errors to status codes
func writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	logrus.Errorf("Repository error (%s): %v", what, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
