package service

import (
	"time"

	"fait_platform_backend/internal/maintenance/repository"
)

// Risk levels derived from the additive risk score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskAssessment is the scored risk for one asset on a given run date.
type RiskAssessment struct {
	Score       int
	Level       string
	OverdueDays *int
}

// AssessRisk scores an asset from warranty status, overdue duration and age
// relative to the expected category lifetime. Each condition contributes
// independently; missing dates simply contribute nothing.
func AssessRisk(asset repository.Asset, dueDate *time.Time, runDate time.Time, defaults Defaults) RiskAssessment {
	today := dateOnly(runDate)
	assessment := RiskAssessment{Level: RiskLow}

	if asset.WarrantyEndDate != nil && dateOnly(*asset.WarrantyEndDate).Before(today) {
		assessment.Score += 2
	}

	if dueDate != nil {
		overdue := daysBetween(today, *dueDate)
		switch {
		case overdue > 30:
			assessment.Score += 2
		case overdue > 0:
			assessment.Score++
		default:
			overdue = 0
		}
		assessment.OverdueDays = &overdue
	}

	if asset.InstallDate != nil {
		if lifeYears, ok := defaults.LifetimeYears[normalizeCategory(asset.Category)]; ok {
			ageYears := float64(daysBetween(today, *asset.InstallDate)) / 365
			switch {
			case ageYears >= float64(lifeYears):
				assessment.Score += 2
			case ageYears >= float64(lifeYears)*0.8:
				assessment.Score++
			}
		}
	}

	switch {
	case assessment.Score >= 4:
		assessment.Level = RiskHigh
	case assessment.Score >= 2:
		assessment.Level = RiskMedium
	}

	return assessment
}
