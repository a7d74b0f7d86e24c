package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/scopa-ai/signal/internal/models"
)

// Row structs mirror the snake_case tables; the model types stay camelCase.

type alertRow struct {
	ID                 string          `db:"id"`
	UserID             string          `db:"user_id"`
	Keyword            string          `db:"keyword"`
	Frequency          string          `db:"frequency"`
	LastChecked        sql.NullTime    `db:"last_checked"`
	LastNotified       sql.NullTime    `db:"last_notified"`
	Enabled            bool            `db:"enabled"`
	OpportunitiesFound int             `db:"opportunities_found"`
	SuccessRate        sql.NullFloat64 `db:"success_rate"`
	TotalChecks        int             `db:"total_checks"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (r alertRow) toModel() models.Alert {
	alert := models.Alert{
		ID:                 r.ID,
		UserID:             r.UserID,
		Keyword:            r.Keyword,
		Frequency:          models.Frequency(r.Frequency),
		Enabled:            r.Enabled,
		OpportunitiesFound: r.OpportunitiesFound,
		TotalChecks:        r.TotalChecks,
		CreatedAt:          r.CreatedAt,
	}
	if r.LastChecked.Valid {
		t := r.LastChecked.Time
		alert.LastChecked = &t
	}
	if r.LastNotified.Valid {
		t := r.LastNotified.Time
		alert.LastNotified = &t
	}
	if r.SuccessRate.Valid {
		rate := r.SuccessRate.Float64
		alert.SuccessRate = &rate
	}
	return alert
}

type notificationRow struct {
	ID        string             `db:"id"`
	UserID    string             `db:"user_id"`
	AlertID   sql.NullString     `db:"alert_id"`
	Type      string             `db:"type"`
	Title     string             `db:"title"`
	Message   string             `db:"message"`
	Data      types.NullJSONText `db:"data"`
	IsRead    bool               `db:"is_read"`
	CreatedAt time.Time          `db:"created_at"`
}

func (r notificationRow) toModel() models.Notification {
	n := models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		AlertID:   r.AlertID.String,
		Type:      models.NotificationType(r.Type),
		Title:     r.Title,
		Message:   r.Message,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
	if r.Data.Valid {
		n.Data = json.RawMessage(r.Data.JSONText)
	}
	return n
}

type profileRow struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	FullName         sql.NullString `db:"full_name"`
	SubscriptionTier string         `db:"subscription_tier"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r profileRow) toModel() models.Profile {
	return models.Profile{
		ID:               r.ID,
		Email:            r.Email,
		FullName:         r.FullName.String,
		SubscriptionTier: r.SubscriptionTier,
		CreatedAt:        r.CreatedAt,
	}
}

type savedLeadRow struct {
	UserID    string         `db:"user_id"`
	LeadID    string         `db:"lead_id"`
	LeadData  types.JSONText `db:"lead_data"`
	Status    string         `db:"status"`
	Notes     string         `db:"notes"`
	SavedDate time.Time      `db:"saved_date"`
}

func (r savedLeadRow) toModel() (models.SavedLead, error) {
	var lead models.Lead
	if err := r.LeadData.Unmarshal(&lead); err != nil {
		return models.SavedLead{}, fmt.Errorf("decode saved lead %s: %w", r.LeadID, err)
	}
	lead.ID = r.LeadID
	lead.Status = models.LeadStatus(r.Status)
	lead.Notes = r.Notes

	return models.SavedLead{Lead: lead, UserID: r.UserID, SavedDate: r.SavedDate}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func jsonOrNull(raw json.RawMessage) types.NullJSONText {
	if len(raw) == 0 {
		return types.NullJSONText{}
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
}
