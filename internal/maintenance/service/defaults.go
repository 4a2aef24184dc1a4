package service

import "strings"

// Defaults carries the built-in scheduling tables and fallback values used when
// no rule resolves a field. Injected so tests can run with alternate tables.
type Defaults struct {
	// IntervalMonths maps a normalized category to its default service
	// interval. Categories absent from the map have no default interval.
	IntervalMonths map[string]int
	// LifetimeYears maps a normalized category to its expected lifetime.
	LifetimeYears map[string]int
	// LeadDays applies when no rule defines how far ahead to warn.
	LeadDays int
	// OverdueGraceDays applies when no rule defines the grace period.
	OverdueGraceDays int
	// CooldownDays is the re-alert suppression window for all reminder types.
	CooldownDays int
}

// BuiltinDefaults returns the stock scheduling tables.
func BuiltinDefaults() Defaults {
	return Defaults{
		IntervalMonths: map[string]int{
			"hvac":               6,
			"water heater":       12,
			"dishwasher":         12,
			"refrigerator":       12,
			"washer":             12,
			"dryer":              12,
			"garage door opener": 12,
			"sump pump":          12,
		},
		LifetimeYears: map[string]int{
			"hvac":               15,
			"water heater":       10,
			"dishwasher":         10,
			"refrigerator":       12,
			"washer":             11,
			"dryer":              13,
			"garage door opener": 12,
			"sump pump":          7,
		},
		LeadDays:         30,
		OverdueGraceDays: 7,
		CooldownDays:     30,
	}
}

// normalizeCategory makes category strings comparable across rules, assets and
// the built-in tables.
func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
