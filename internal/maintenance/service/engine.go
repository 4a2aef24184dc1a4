package service

import (
	"context"
	"fmt"
	"time"

	"fait_platform_backend/internal/maintenance/repository"
	"fait_platform_backend/internal/notification/outbox"
	"fait_platform_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Template keys consumed by the notification delivery worker.
const (
	TemplateDueSoon  = "maintenance_due_soon"
	TemplateOverdue  = "maintenance_overdue"
	TemplateHighRisk = "maintenance_high_risk"
)

// TemplateKey maps a reminder type to its email template.
func TemplateKey(reminderType string) string {
	switch reminderType {
	case repository.TypeOverdue:
		return TemplateOverdue
	case repository.TypeHighRisk:
		return TemplateHighRisk
	default:
		return TemplateDueSoon
	}
}

// Store is the persistence surface the engine needs. Implemented by
// *repository.Repository; faked in tests.
type Store interface {
	ListHomes(ctx context.Context) ([]repository.Home, error)
	ListAssets(ctx context.Context, homeID uuid.UUID) ([]repository.Asset, error)
	ListEnabledRules(ctx context.Context, homeID uuid.UUID) ([]repository.Rule, error)
	ListReminders(ctx context.Context, homeID uuid.UUID) ([]repository.Reminder, error)
	ListSnoozedDue(ctx context.Context, homeID uuid.UUID, runDate time.Time) ([]repository.Reminder, error)
	ReopenReminders(ctx context.Context, ids []uuid.UUID) error
	InsertReminder(ctx context.Context, rem *repository.Reminder) error
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

// OutboxWriter is the slice of the outbox repository the engine writes to.
type OutboxWriter interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// HomeRunResult aggregates the outcome of processing one home.
type HomeRunResult struct {
	HomeID           uuid.UUID `json:"homeId"`
	Err              error     `json:"-"`
	Error            string    `json:"error,omitempty"`
	RemindersCreated int       `json:"remindersCreated"`
	OutboxCreated    int       `json:"outboxCreated"`
}

// Engine runs the daily maintenance reminder generation across all homes.
type Engine struct {
	store      Store
	outbox     OutboxWriter
	defaults   Defaults
	appBaseURL string
	workers    int
	log        *logger.Logger
}

// NewEngine creates the reminder engine. workers bounds how many homes are
// processed concurrently; homes share no mutable state so anything >= 1 is
// safe with respect to correctness.
func NewEngine(store Store, outboxRepo OutboxWriter, defaults Defaults, appBaseURL string, workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:      store,
		outbox:     outboxRepo,
		defaults:   defaults,
		appBaseURL: appBaseURL,
		workers:    workers,
		log:        log,
	}
}

// Run processes every home for the given run date. Individual home and asset
// failures are logged and isolated; the only fatal error is the initial home
// listing, without which no work can proceed.
func (e *Engine) Run(ctx context.Context, runDate time.Time) ([]HomeRunResult, error) {
	day := dateOnly(runDate)

	// Every log line of this run carries the same run_id.
	ctx = context.WithValue(ctx, logger.RunIDKey, uuid.NewString())
	log := e.log.WithContext(ctx)
	log.Info("starting reminder generation", "run_date", day.Format(time.DateOnly))

	homes, err := e.store.ListHomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list homes: %w", err)
	}

	results := make([]HomeRunResult, len(homes))

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, home := range homes {
		i, home := i, home
		g.Go(func() error {
			results[i] = e.processHome(ctx, home, day)
			return nil
		})
	}
	_ = g.Wait()

	var reminders, entries, failed int
	for i := range results {
		if results[i].Err != nil {
			results[i].Error = results[i].Err.Error()
			failed++
		}
		reminders += results[i].RemindersCreated
		entries += results[i].OutboxCreated
	}
	log.Info("reminder generation complete",
		"homes", len(homes), "failed_homes", failed,
		"reminders_created", reminders, "outbox_created", entries)

	return results, nil
}

func (e *Engine) processHome(ctx context.Context, home repository.Home, runDate time.Time) HomeRunResult {
	result := HomeRunResult{HomeID: home.ID}
	log := e.log.WithContext(ctx).WithHome(home.ID.String())

	rules, err := e.store.ListEnabledRules(ctx, home.ID)
	if err != nil {
		result.Err = fmt.Errorf("failed to load rules: %w", err)
		log.Error("skipping home", "error", result.Err)
		return result
	}
	assets, err := e.store.ListAssets(ctx, home.ID)
	if err != nil {
		result.Err = fmt.Errorf("failed to load assets: %w", err)
		log.Error("skipping home", "error", result.Err)
		return result
	}
	reminders, err := e.store.ListReminders(ctx, home.ID)
	if err != nil {
		result.Err = fmt.Errorf("failed to load reminders: %w", err)
		log.Error("skipping home", "error", result.Err)
		return result
	}

	// Reopening must finish before decisioning: the cool-down check reads
	// the post-reopen reminder set.
	e.reopenSnoozed(ctx, home, assets, reminders, runDate, log, &result)

	for _, asset := range assets {
		schedule := ResolveSchedule(asset, rules, e.defaults)
		dueDate := NextDueDate(asset, schedule.IntervalMonths)
		risk := AssessRisk(asset, dueDate, runDate, e.defaults)
		decisions := Decide(asset, schedule, dueDate, risk, runDate, reminders, e.defaults)

		for _, decision := range decisions {
			meta := decision.Meta
			meta["assetDisplayName"] = asset.DisplayName
			meta["assetCategory"] = asset.Category

			rem := &repository.Reminder{
				HomeID:         home.ID,
				AssetID:        asset.ID,
				Type:           decision.Type,
				DueDate:        decision.DueDate,
				CreatedForDate: runDate,
				Status:         repository.StatusOpen,
				Meta:           meta,
			}
			if err := e.store.InsertReminder(ctx, rem); err != nil {
				// Nothing was durably created, so this decision is
				// simply reconsidered on the next run.
				log.Error("failed to insert reminder, skipping asset",
					"asset_id", asset.ID, "type", decision.Type, "error", err)
				break
			}
			result.RemindersCreated++
			reminders = append(reminders, *rem)

			if e.enqueueOutbox(ctx, home, asset.DisplayName, asset.Category, rem, log) {
				result.OutboxCreated++
			}
		}
	}

	return result
}

// reopenSnoozed reactivates snoozed reminders whose snooze window elapsed and
// re-notifies each. Reopened reminders keep their created-for date, so the
// same-run duplicate check does not apply to them.
func (e *Engine) reopenSnoozed(ctx context.Context, home repository.Home, assets []repository.Asset,
	reminders []repository.Reminder, runDate time.Time, log *logger.Logger, result *HomeRunResult) {

	snoozed, err := e.store.ListSnoozedDue(ctx, home.ID, runDate)
	if err != nil {
		log.Error("failed to list snoozed reminders", "error", err)
		return
	}
	if len(snoozed) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(snoozed))
	for i, rem := range snoozed {
		ids[i] = rem.ID
	}
	if err := e.store.ReopenReminders(ctx, ids); err != nil {
		log.Error("failed to reopen snoozed reminders", "error", err)
		return
	}

	reopened := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		reopened[id] = true
	}
	for i := range reminders {
		if reopened[reminders[i].ID] {
			reminders[i].Status = repository.StatusOpen
			reminders[i].SnoozedUntil = nil
		}
	}

	for _, rem := range snoozed {
		name, category := assetDisplay(assets, rem.AssetID)
		if e.enqueueOutbox(ctx, home, name, category, &rem, log) {
			result.OutboxCreated++
		}
	}
}

// enqueueOutbox writes the notification outbox entry for a reminder and stamps
// the reminder as notified. A missing owner email produces a skipped entry
// rather than a failure. Returns whether a row was created.
func (e *Engine) enqueueOutbox(ctx context.Context, home repository.Home, assetName, assetCategory string,
	rem *repository.Reminder, log *logger.Logger) bool {

	recipient := home.OwnerEmail
	status := outbox.StatusQueued
	var errMsg *string
	if recipient == "" {
		recipient = "unknown"
		status = outbox.StatusSkipped
		msg := "missing recipient email"
		errMsg = &msg
	}

	var dueDate *string
	if rem.DueDate != nil {
		formatted := rem.DueDate.Format(time.DateOnly)
		dueDate = &formatted
	}

	_, err := e.outbox.Insert(ctx, outbox.InsertParams{
		HomeID:      home.ID,
		ReminderID:  rem.ID,
		Recipient:   recipient,
		TemplateKey: TemplateKey(rem.Type),
		Payload: map[string]any{
			"homeName":      home.Name,
			"address":       home.Address,
			"city":          home.City,
			"state":         home.State,
			"zip":           home.ZipCode,
			"assetName":     assetName,
			"assetCategory": assetCategory,
			"dueDate":       dueDate,
			"reminderType":  rem.Type,
			"portalLink":    fmt.Sprintf("%s/portal/homes/%s/reminders", e.appBaseURL, home.ID),
		},
		Status: status,
		Error:  errMsg,
	})
	if err != nil {
		// The reminder row already exists and blocks regeneration, so a
		// lost outbox entry is a logged gap, not a correctness problem.
		log.Error("failed to insert outbox entry", "reminder_id", rem.ID, "error", err)
		return false
	}

	if err := e.store.MarkNotified(ctx, rem.ID, time.Now().UTC()); err != nil {
		log.Error("failed to mark reminder notified", "reminder_id", rem.ID, "error", err)
	}
	return true
}

func assetDisplay(assets []repository.Asset, assetID uuid.UUID) (name, category string) {
	for _, asset := range assets {
		if asset.ID == assetID {
			return asset.DisplayName, asset.Category
		}
	}
	return "", ""
}
