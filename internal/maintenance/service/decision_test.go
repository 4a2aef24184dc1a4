package service

import (
	"testing"
	"time"

	"fait_platform_backend/internal/maintenance/repository"

	"github.com/google/uuid"
)

func decisionTypes(decisions []Decision) []string {
	types := make([]string, len(decisions))
	for i, d := range decisions {
		types[i] = d.Type
	}
	return types
}

func hasDecision(decisions []Decision, reminderType string) bool {
	for _, d := range decisions {
		if d.Type == reminderType {
			return true
		}
	}
	return false
}

func TestDecide_DueSoonBoundary(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}

	// Exactly 30 days out is inside the lead window.
	decisions := Decide(asset, schedule, datePtr(2025, time.July, 1), RiskAssessment{Level: RiskLow}, runDate, nil, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeDueSoon) {
		t.Fatalf("expected due_soon at 30 days, got %v", decisionTypes(decisions))
	}

	// 31 days out is not.
	decisions = Decide(asset, schedule, datePtr(2025, time.July, 2), RiskAssessment{Level: RiskLow}, runDate, nil, BuiltinDefaults())
	if hasDecision(decisions, repository.TypeDueSoon) {
		t.Fatalf("expected no due_soon at 31 days, got %v", decisionTypes(decisions))
	}
}

func TestDecide_OverdueBoundary(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}

	// Due 7 days ago: still inside the grace period.
	decisions := Decide(asset, schedule, datePtr(2025, time.May, 25), RiskAssessment{Level: RiskLow}, runDate, nil, BuiltinDefaults())
	if hasDecision(decisions, repository.TypeOverdue) {
		t.Fatalf("expected no overdue within grace period, got %v", decisionTypes(decisions))
	}

	// Due 8 days ago: past the grace period.
	decisions = Decide(asset, schedule, datePtr(2025, time.May, 24), RiskAssessment{Level: RiskLow}, runDate, nil, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeOverdue) {
		t.Fatalf("expected overdue past grace period, got %v", decisionTypes(decisions))
	}
}

func TestDecide_HighRiskWithoutDueDate(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}

	decisions := Decide(asset, Schedule{LeadDays: 30, OverdueGraceDays: 7}, nil,
		RiskAssessment{Score: 4, Level: RiskHigh}, runDate, nil, BuiltinDefaults())
	if len(decisions) != 1 || decisions[0].Type != repository.TypeHighRisk {
		t.Fatalf("expected only high_risk, got %v", decisionTypes(decisions))
	}
	if decisions[0].DueDate != nil {
		t.Fatalf("expected nil due date on high_risk decision, got %v", decisions[0].DueDate)
	}
}

func TestDecide_MultipleDecisionsForOneAsset(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}

	// Due long ago and high risk: overdue + high_risk together.
	decisions := Decide(asset, schedule, datePtr(2025, time.March, 1),
		RiskAssessment{Score: 5, Level: RiskHigh}, runDate, nil, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeOverdue) || !hasDecision(decisions, repository.TypeHighRisk) {
		t.Fatalf("expected overdue and high_risk, got %v", decisionTypes(decisions))
	}
}

func TestDecide_SameRunDateDuplicateIsSuppressed(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}
	existing := []repository.Reminder{{
		AssetID:        asset.ID,
		Type:           repository.TypeDueSoon,
		CreatedForDate: runDate,
		Status:         repository.StatusOpen,
	}}

	decisions := Decide(asset, schedule, datePtr(2025, time.June, 20), RiskAssessment{Level: RiskLow}, runDate, existing, BuiltinDefaults())
	if len(decisions) != 0 {
		t.Fatalf("expected duplicate suppression, got %v", decisionTypes(decisions))
	}
}

func TestDecide_CooldownSuppression(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}
	due := datePtr(2025, time.June, 20)

	// A due_soon reminder from 10 days ago blocks another one today.
	existing := []repository.Reminder{{
		AssetID:        asset.ID,
		Type:           repository.TypeDueSoon,
		CreatedForDate: date(2025, time.May, 22),
		Status:         repository.StatusCompleted,
	}}
	decisions := Decide(asset, schedule, due, RiskAssessment{Level: RiskLow}, runDate, existing, BuiltinDefaults())
	if len(decisions) != 0 {
		t.Fatalf("expected cool-down suppression at 10 days, got %v", decisionTypes(decisions))
	}

	// The same reminder 31 days back has aged out of the window.
	existing[0].CreatedForDate = date(2025, time.May, 1)
	decisions = Decide(asset, schedule, due, RiskAssessment{Level: RiskLow}, runDate, existing, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeDueSoon) {
		t.Fatalf("expected due_soon after cool-down expiry, got %v", decisionTypes(decisions))
	}
}

func TestDecide_CooldownIsPerAssetAndType(t *testing.T) {
	runDate := date(2025, time.June, 1)
	asset := repository.Asset{ID: uuid.New()}
	schedule := Schedule{LeadDays: 30, OverdueGraceDays: 7}
	due := datePtr(2025, time.June, 20)

	// A recent reminder for a different asset must not suppress this one.
	existing := []repository.Reminder{{
		AssetID:        uuid.New(),
		Type:           repository.TypeDueSoon,
		CreatedForDate: date(2025, time.May, 22),
		Status:         repository.StatusOpen,
	}}
	decisions := Decide(asset, schedule, due, RiskAssessment{Level: RiskLow}, runDate, existing, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeDueSoon) {
		t.Fatalf("expected due_soon despite other asset's reminder, got %v", decisionTypes(decisions))
	}

	// A recent overdue reminder for this asset must not suppress due_soon.
	existing = []repository.Reminder{{
		AssetID:        asset.ID,
		Type:           repository.TypeOverdue,
		CreatedForDate: date(2025, time.May, 22),
		Status:         repository.StatusOpen,
	}}
	decisions = Decide(asset, schedule, due, RiskAssessment{Level: RiskLow}, runDate, existing, BuiltinDefaults())
	if !hasDecision(decisions, repository.TypeDueSoon) {
		t.Fatalf("expected due_soon despite overdue reminder, got %v", decisionTypes(decisions))
	}
}
