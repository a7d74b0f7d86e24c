package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service pushes alert notifications to Teams and email
type Service struct {
	config   *config.Config
	client   *resty.Client
	profiles ProfileLookup
	mailer   Mailer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a notification service. profiles is used to find the
// recipient's email and may be nil when email is not configured.
func NewService(cfg *config.Config, profiles ProfileLookup) *Service {
	s := &Service{
		config:   cfg,
		client:   resty.New().SetTimeout(30 * time.Second),
		profiles: profiles,
	}
	if cfg.SMTPHost != "" {
		s.mailer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// WithMailer replaces the SMTP dialer
func (s *Service) WithMailer(m Mailer) *Service {
	s.mailer = m
	return s
}

// Enabled reports whether any delivery channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.emailEnabled()
}

func (s *Service) emailEnabled() bool {
	return s.config.EmailFrom != "" && s.mailer != nil && s.profiles != nil
}

// Deliver sends n via every configured channel. Every channel is attempted;
// failures are joined into one error.
func (s *Service) Deliver(ctx context.Context, n models.Notification) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(ctx, n); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Debugf("Sent notification %s to Teams", n.ID)
		}
	}

	if s.emailEnabled() {
		if err := s.sendEmail(ctx, n); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Debugf("Sent notification %s via email", n.ID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(ctx context.Context, n models.Notification) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(BuildTeamsMessage(n)).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

// BuildTeamsMessage renders n as a MessageCard
func BuildTeamsMessage(n models.Notification) *TeamsMessage {
	color := "0078D4"
	if n.Type == models.NotificationError {
		color = "D13438"
	}

	facts := []TeamsFact{
		{Name: "Type", Value: string(n.Type)},
		{Name: "Created", Value: n.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	facts = append(facts, dataFacts(n.Data)...)

	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: color,
		Title:      n.Title,
		Text:       n.Message,
		Sections: []TeamsSection{{
			ActivityTitle: "Details",
			Facts:         facts,
			Markdown:      true,
		}},
	}
}

// dataFacts flattens the scalar fields of a notification payload, sorted by key
func dataFacts(data json.RawMessage) []TeamsFact {
	if len(data) == 0 {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var facts []TeamsFact
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string, float64, bool:
			facts = append(facts, TeamsFact{Name: key, Value: fmt.Sprint(v)})
		}
	}
	return facts
}

func (s *Service) sendEmail(ctx context.Context, n models.Notification) error {
	profile, err := s.profiles.GetProfile(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", n.UserID, err)
	}
	if profile.Email == "" {
		return fmt.Errorf("profile %s has no email address", n.UserID)
	}

	htmlBody, err := buildEmailHTML(n, profile)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.EmailFrom)
	m.SetHeader("To", profile.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", buildEmailText(n))
	m.AddAlternative("text/html", htmlBody)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Notification.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .header.error { background-color: #d13438; }
        .body { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="header{{if .IsError}} error{{end}}">
        <h1>{{.Notification.Title}}</h1>
        <p>{{.Created.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>
    <div class="body">
        {{if .Name}}<p>Hi {{.Name}},</p>{{end}}
        <p>{{.Notification.Message}}</p>
    </div>
    <hr>
    <p><small>You are receiving this because you set up a market alert in Signal.</small></p>
</body>
</html>
`))

func buildEmailHTML(n models.Notification, profile models.Profile) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Notification models.Notification
		Created      time.Time
		Name         string
		IsError      bool
	}{n, n.CreatedAt.UTC(), profile.FullName, n.Type == models.NotificationError})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(n models.Notification) string {
	var text strings.Builder

	text.WriteString(n.Title + "\n")
	text.WriteString(strings.Repeat("=", len(n.Title)) + "\n\n")
	text.WriteString(n.Message + "\n\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n", n.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	text.WriteString("\n---\nYou are receiving this because you set up a market alert in Signal.\n")

	return text.String()
}
