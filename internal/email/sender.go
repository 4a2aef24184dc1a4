// Package email delivers maintenance notification emails.
package email

import (
	"context"

	"fait_platform_backend/platform/config"
)

// ReminderData carries the rendered fields for a maintenance reminder email.
// It mirrors the notification outbox payload.
type ReminderData struct {
	HomeName      string  `json:"homeName"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Zip           string  `json:"zip"`
	AssetName     string  `json:"assetName"`
	AssetCategory string  `json:"assetCategory"`
	DueDate       *string `json:"dueDate"`
	ReminderType  string  `json:"reminderType"`
	PortalLink    string  `json:"portalLink"`
}

// Sender delivers a rendered maintenance reminder to a recipient.
type Sender interface {
	SendMaintenanceReminder(ctx context.Context, toEmail, templateKey string, data ReminderData) error
}

// NewSender builds the configured sender: SMTP when email is enabled, a
// logging no-op otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return noopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}

type noopSender struct{}

func (noopSender) SendMaintenanceReminder(context.Context, string, string, ReminderData) error {
	return nil
}
