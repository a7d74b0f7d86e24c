package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scopa-ai/signal/internal/models"
)

const savedLeadColumns = `user_id, lead_id, lead_data, status, notes, saved_date`

// SaveLead adds a lead to the user's tracker. Saving the same lead again
// refreshes its data but keeps status and notes.
func (r *Repository) SaveLead(ctx context.Context, userID string, lead models.Lead) (models.SavedLead, error) {
	status := lead.Status
	if status == "" {
		status = models.StatusNew
	}

	data, err := json.Marshal(lead)
	if err != nil {
		return models.SavedLead{}, fmt.Errorf("encode lead: %w", err)
	}

	var row savedLeadRow
	err = r.db.GetContext(ctx, &row,
		`INSERT INTO saved_leads (user_id, lead_id, lead_data, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, lead_id) DO UPDATE SET lead_data = EXCLUDED.lead_data
		RETURNING `+savedLeadColumns,
		userID, lead.ID, data, string(status), lead.Notes)
	if err != nil {
		return models.SavedLead{}, fmt.Errorf("save lead: %w", err)
	}
	return row.toModel()
}

// UpdateSavedLead changes the pipeline status and, when notes is non-nil, the notes
func (r *Repository) UpdateSavedLead(ctx context.Context, userID, leadID string, status models.LeadStatus, notes *string) error {
	query := `UPDATE saved_leads SET status = $1 WHERE user_id = $2 AND lead_id = $3`
	args := []any{string(status), userID, leadID}
	if notes != nil {
		query = `UPDATE saved_leads SET status = $1, notes = $4 WHERE user_id = $2 AND lead_id = $3`
		args = append(args, *notes)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update saved lead: %w", err)
	}
	return expectOneRow(res, "update saved lead")
}

// ListSavedLeads returns the user's tracker, most recently saved first
func (r *Repository) ListSavedLeads(ctx context.Context, userID string) ([]models.SavedLead, error) {
	var rows []savedLeadRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+savedLeadColumns+` FROM saved_leads WHERE user_id = $1 ORDER BY saved_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved leads: %w", err)
	}

	leads := make([]models.SavedLead, 0, len(rows))
	for _, row := range rows {
		lead, err := row.toModel()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// DeleteSavedLead removes a lead from the user's tracker
func (r *Repository) DeleteSavedLead(ctx context.Context, userID, leadID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_leads WHERE user_id = $1 AND lead_id = $2`, userID, leadID)
	if err != nil {
		return fmt.Errorf("delete saved lead: %w", err)
	}
	return expectOneRow(res, "delete saved lead")
}
