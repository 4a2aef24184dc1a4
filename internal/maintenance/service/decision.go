package service

import (
	"time"

	"fait_platform_backend/internal/maintenance/repository"

	"github.com/google/uuid"
)

// Decision is one reminder the engine has decided to raise for an asset.
type Decision struct {
	Type    string
	DueDate *time.Time
	Meta    map[string]any
}

// Decide combines due-date proximity, overdue status and risk level into the
// reminders to raise for one asset, then drops decisions suppressed by the
// existing reminder set. The three conditions are evaluated independently, so
// a single asset can produce several decisions in one run.
func Decide(asset repository.Asset, schedule Schedule, dueDate *time.Time, risk RiskAssessment,
	runDate time.Time, existing []repository.Reminder, defaults Defaults) []Decision {

	today := dateOnly(runDate)
	var decisions []Decision

	if dueDate != nil {
		daysUntilDue := daysBetween(*dueDate, today)
		if daysUntilDue >= 0 && daysUntilDue <= schedule.LeadDays {
			decisions = append(decisions, Decision{
				Type:    repository.TypeDueSoon,
				DueDate: dueDate,
				Meta: map[string]any{
					"interval_months": derefOrNil(schedule.IntervalMonths),
					"lead_days":       schedule.LeadDays,
				},
			})
		}

		overdueThreshold := dueDate.AddDate(0, 0, schedule.OverdueGraceDays)
		if today.After(overdueThreshold) {
			decisions = append(decisions, Decision{
				Type:    repository.TypeOverdue,
				DueDate: dueDate,
				Meta: map[string]any{
					"interval_months":    derefOrNil(schedule.IntervalMonths),
					"overdue_grace_days": schedule.OverdueGraceDays,
				},
			})
		}
	}

	if risk.Level == RiskHigh {
		decisions = append(decisions, Decision{
			Type:    repository.TypeHighRisk,
			DueDate: dueDate,
			Meta: map[string]any{
				"riskScore": risk.Score,
				"riskLevel": risk.Level,
			},
		})
	}

	kept := decisions[:0]
	for _, decision := range decisions {
		if suppressed(existing, asset.ID, decision.Type, today, defaults.CooldownDays) {
			continue
		}
		kept = append(kept, decision)
	}
	return kept
}

// suppressed applies the two-layer idempotency check: an exact duplicate of
// (asset, type) for this run date, or any reminder of the same (asset, type)
// within the trailing cool-down window. Both checks together make a repeated
// daily invocation a no-op.
func suppressed(existing []repository.Reminder, assetID uuid.UUID, reminderType string, today time.Time, cooldownDays int) bool {
	windowStart := today.AddDate(0, 0, -cooldownDays)

	for _, rem := range existing {
		if rem.AssetID != assetID || rem.Type != reminderType {
			continue
		}
		createdFor := dateOnly(rem.CreatedForDate)
		if createdFor.Equal(today) {
			return true
		}
		if createdFor.Before(windowStart) {
			continue
		}
		switch rem.Status {
		case repository.StatusOpen, repository.StatusSnoozed, repository.StatusCompleted, repository.StatusDismissed:
			return true
		}
	}
	return false
}

func derefOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
