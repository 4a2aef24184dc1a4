package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// knownTemplates maps outbox template keys to embedded template files.
var knownTemplates = map[string]string{
	"maintenance_due_soon":  "maintenance_due_soon.html",
	"maintenance_overdue":   "maintenance_overdue.html",
	"maintenance_high_risk": "maintenance_high_risk.html",
}

func renderReminderTemplate(templateKey string, data ReminderData) (string, error) {
	file, ok := knownTemplates[templateKey]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", templateKey)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, file, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", file, err)
	}
	return buf.String(), nil
}

func subjectForTemplate(templateKey, assetName string) string {
	switch templateKey {
	case "maintenance_overdue":
		return fmt.Sprintf(subjectOverdueFmt, assetName)
	case "maintenance_high_risk":
		return fmt.Sprintf(subjectHighRiskFmt, assetName)
	default:
		return fmt.Sprintf(subjectDueSoonFmt, assetName)
	}
}
