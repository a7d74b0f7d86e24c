package notifications

import (
	"context"

	"github.com/scopa-ai/signal/internal/models"
	"gopkg.in/gomail.v2"
)

// NotificationInterface defines the contract for notification delivery
type NotificationInterface interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// ProfileLookup resolves the user a notification is addressed to
type ProfileLookup interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Mailer sends composed email messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}
