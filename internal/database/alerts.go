package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scopa-ai/signal/internal/models"
)

const alertColumns = `id, user_id, keyword, frequency, last_checked, last_notified, enabled,
	opportunities_found, success_rate, total_checks, created_at`

// ListEnabledAlerts returns every enabled alert, oldest first
func (r *Repository) ListEnabledAlerts(ctx context.Context) ([]models.Alert, error) {
	var rows []alertRow
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE enabled = true ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list enabled alerts: %w", err)
	}

	alerts := make([]models.Alert, len(rows))
	for i, row := range rows {
		alerts[i] = row.toModel()
	}
	return alerts, nil
}

// ListAlerts returns a user's alerts, newest first
func (r *Repository) ListAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	var rows []alertRow
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	alerts := make([]models.Alert, len(rows))
	for i, row := range rows {
		alerts[i] = row.toModel()
	}
	return alerts, nil
}

// CreateAlert inserts a new enabled alert and returns it
func (r *Repository) CreateAlert(ctx context.Context, userID, keyword string, frequency models.Frequency) (models.Alert, error) {
	var row alertRow
	query := `INSERT INTO alerts (id, user_id, keyword, frequency, enabled)
		VALUES ($1, $2, $3, $4, true)
		RETURNING ` + alertColumns

	if err := r.db.GetContext(ctx, &row, query, uuid.NewString(), userID, keyword, string(frequency)); err != nil {
		return models.Alert{}, fmt.Errorf("create alert: %w", err)
	}
	return row.toModel(), nil
}

// DeleteAlert removes a user's alert
func (r *Repository) DeleteAlert(ctx context.Context, userID, alertID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, alertID, userID)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return expectOneRow(res, "delete alert")
}

// UpdateAlertChecked stamps last_checked and counts the check
func (r *Repository) UpdateAlertChecked(ctx context.Context, alertID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET last_checked = $1, total_checks = total_checks + 1 WHERE id = $2`,
		at, alertID)
	if err != nil {
		return fmt.Errorf("update alert last_checked: %w", err)
	}
	return expectOneRow(res, "update alert last_checked")
}

// UpdateAlertNotified stamps last_notified, counts the hit and refreshes the
// hit ratio. Expected to run after UpdateAlertChecked for the same check.
func (r *Repository) UpdateAlertNotified(ctx context.Context, alertID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET last_notified = $1,
			opportunities_found = opportunities_found + 1,
			success_rate = (opportunities_found + 1)::float8 / GREATEST(total_checks, 1)
		WHERE id = $2`,
		at, alertID)
	if err != nil {
		return fmt.Errorf("update alert last_notified: %w", err)
	}
	return expectOneRow(res, "update alert last_notified")
}

// InsertAlertLog appends one check outcome
func (r *Repository) InsertAlertLog(ctx context.Context, log models.AlertLog) error {
	opportunities := log.OpportunitiesData
	if opportunities == nil {
		opportunities = []json.RawMessage{}
	}
	data, err := json.Marshal(opportunities)
	if err != nil {
		return fmt.Errorf("encode opportunities data: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO alert_logs (id, alert_id, score, summary, opportunities_data, processing_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.AlertID, log.Score, log.Summary, data, log.ProcessingTimeMs, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert log: %w", err)
	}
	return nil
}
