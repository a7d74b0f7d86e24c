package alerts

import (
	"time"

	"github.com/scopa-ai/signal/internal/models"
)

// Due windows sit an hour under the nominal period so a check that ran a
// little late yesterday is not skipped today.
const (
	dailyInterval  = 23 * time.Hour
	weeklyInterval = 167 * time.Hour
)

// ShouldProcessAlert reports whether alert is due for a check at now. An alert
// that has never been checked is always due; an unknown frequency never is.
func ShouldProcessAlert(alert models.Alert, now time.Time) bool {
	if alert.LastChecked == nil {
		return true
	}

	elapsed := now.Sub(*alert.LastChecked)
	switch alert.Frequency {
	case models.FrequencyDaily:
		return elapsed >= dailyInterval
	case models.FrequencyWeekly:
		return elapsed >= weeklyInterval
	default:
		return false
	}
}
