package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/sirupsen/logrus"
)

type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type searchResponse struct {
	Query string            `json:"query"`
	Mode  models.SearchMode `json:"mode"`
	Count int               `json:"count"`
	Leads []models.Lead     `json:"leads"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.Leads == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	var req searchRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	mode := models.ParseSearchMode(req.Mode)
	leads := s.Leads.FindRealLeads(r.Context(), strings.TrimSpace(req.Query), mode)
	if leads == nil {
		leads = []models.Lead{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: req.Query, Mode: mode, Count: len(leads), Leads: leads})
}

type opportunitiesRequest struct {
	Interest string `json:"interest"`
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if s.Opportunities == nil {
		writeError(w, http.StatusServiceUnavailable, "opportunity search is not configured")
		return
	}

	var req opportunitiesRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Interest) == "" {
		writeError(w, http.StatusBadRequest, "interest is required")
		return
	}

	opportunities, err := s.Opportunities.FindOpportunities(r.Context(), strings.TrimSpace(req.Interest))
	if err != nil {
		logrus.Errorf("Opportunity search failed: %v", err)
		writeError(w, http.StatusBadGateway, "opportunity analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"opportunities": opportunities})
}

func (s *Server) handleListSavedLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.Repo.ListSavedLeads(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err, "saved leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleSaveLead(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if err := decode(r, &lead); err != nil || lead.ID == "" {
		writeError(w, http.StatusBadRequest, "lead with id is required")
		return
	}
	if lead.Status != "" {
		status, err := models.ParseLeadStatus(string(lead.Status))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lead.Status = status
	}

	saved, err := s.Repo.SaveLead(r.Context(), userID(r), lead)
	if err != nil {
		writeStoreError(w, err, "lead")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type updateLeadRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (s *Server) handleUpdateSavedLead(w http.ResponseWriter, r *http.Request) {
	var req updateLeadRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := models.ParseLeadStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	leadID := mux.Vars(r)["id"]
	if err := s.Repo.UpdateSavedLead(r.Context(), userID(r), leadID, status, req.Notes); err != nil {
		writeStoreError(w, err, "lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": leadID, "status": status})
}

func (s *Server) handleDeleteSavedLead(w http.ResponseWriter, r *http.Request) {
	if err := s.Repo.DeleteSavedLead(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.Repo.ListAlerts(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err, "alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

type createAlertRequest struct {
	Keyword   string `json:"keyword"`
	Frequency string `json:"frequency"`
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Keyword) == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	frequency := models.Frequency(strings.ToLower(req.Frequency))
	switch frequency {
	case "":
		frequency = models.FrequencyDaily
	case models.FrequencyDaily, models.FrequencyWeekly:
	default:
		writeError(w, http.StatusBadRequest, "frequency must be daily or weekly")
		return
	}

	alert, err := s.Repo.CreateAlert(r.Context(), userID(r), strings.TrimSpace(req.Keyword), frequency)
	if err != nil {
		writeStoreError(w, err, "alert")
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.Repo.DeleteAlert(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notifications, err := s.Repo.ListNotifications(r.Context(), userID(r), unreadOnly)
	if err != nil {
		writeStoreError(w, err, "notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.Repo.MarkNotificationRead(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
