package service

import (
	"fait_platform_backend/internal/maintenance/repository"
)

// Schedule is the effective scheduling parameters for one asset after rule
// resolution. A nil IntervalMonths means no due date can be computed.
type Schedule struct {
	IntervalMonths   *int
	LeadDays         int
	OverdueGraceDays int
}

// ResolveSchedule applies the three-tier rule precedence for each field
// independently: asset-scoped rule > category-scoped rule > home-wide rule.
// The interval additionally falls back to the asset's own override and then
// to the built-in category default. Only enabled rules participate.
func ResolveSchedule(asset repository.Asset, rules []repository.Rule, defaults Defaults) Schedule {
	resolvers := orderedResolvers(asset, rules)

	schedule := Schedule{
		LeadDays:         defaults.LeadDays,
		OverdueGraceDays: defaults.OverdueGraceDays,
	}

	schedule.IntervalMonths = firstDefined(resolvers, func(r repository.Rule) *int { return r.IntervalMonths })
	if schedule.IntervalMonths == nil {
		schedule.IntervalMonths = asset.ServiceIntervalMonths
	}
	if schedule.IntervalMonths == nil {
		if months, ok := defaults.IntervalMonths[normalizeCategory(asset.Category)]; ok {
			schedule.IntervalMonths = &months
		}
	}

	if lead := firstDefined(resolvers, func(r repository.Rule) *int { return r.LeadDays }); lead != nil {
		schedule.LeadDays = *lead
	}
	if grace := firstDefined(resolvers, func(r repository.Rule) *int { return r.OverdueGraceDays }); grace != nil {
		schedule.OverdueGraceDays = *grace
	}

	return schedule
}

// orderedResolvers returns the rules applicable to the asset in fixed
// precedence order: asset scope first, then category, then home.
func orderedResolvers(asset repository.Asset, rules []repository.Rule) []repository.Rule {
	var byScope [3][]repository.Rule
	category := normalizeCategory(asset.Category)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		switch rule.Scope {
		case "asset":
			if rule.AssetID != nil && *rule.AssetID == asset.ID {
				byScope[0] = append(byScope[0], rule)
			}
		case "category":
			if rule.Category != nil && normalizeCategory(*rule.Category) == category {
				byScope[1] = append(byScope[1], rule)
			}
		case "home":
			byScope[2] = append(byScope[2], rule)
		}
	}

	var ordered []repository.Rule
	for _, group := range byScope {
		ordered = append(ordered, group...)
	}
	return ordered
}

// firstDefined walks the ordered resolvers and returns the first rule value
// that actually defines the field.
func firstDefined(resolvers []repository.Rule, field func(repository.Rule) *int) *int {
	for _, rule := range resolvers {
		if value := field(rule); value != nil {
			return value
		}
	}
	return nil
}
