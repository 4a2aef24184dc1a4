package service

import (
	"time"

	"fait_platform_backend/internal/maintenance/repository"
)

// dateOnly strips the time-of-day component, keeping the calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// addMonths performs calendar-month arithmetic: the day-of-month is preserved
// where valid and clamped to the last day of the target month otherwise
// (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole calendar days from earlier to later.
// Negative when later precedes earlier.
func daysBetween(later, earlier time.Time) int {
	return int(dateOnly(later).Sub(dateOnly(earlier)).Hours() / 24)
}

// NextDueDate computes the next service due date for an asset from the
// resolved interval. The last service date takes priority over the install
// date; with neither, no due date is derivable.
func NextDueDate(asset repository.Asset, intervalMonths *int) *time.Time {
	if intervalMonths == nil || *intervalMonths <= 0 {
		return nil
	}
	if asset.LastServiceDate != nil {
		due := addMonths(dateOnly(*asset.LastServiceDate), *intervalMonths)
		return &due
	}
	if asset.InstallDate != nil {
		due := addMonths(dateOnly(*asset.InstallDate), *intervalMonths)
		return &due
	}
	return nil
}
