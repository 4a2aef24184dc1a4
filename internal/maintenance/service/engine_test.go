package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fait_platform_backend/internal/maintenance/repository"
	"fait_platform_backend/internal/notification/outbox"
	"fait_platform_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	homes        []repository.Home
	rules        map[uuid.UUID][]repository.Rule
	assets       map[uuid.UUID][]repository.Asset
	reminders    map[uuid.UUID][]repository.Reminder
	failRulesFor map[uuid.UUID]bool
	failInserts  int
	listHomesErr error
	notified     []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rules:        map[uuid.UUID][]repository.Rule{},
		assets:       map[uuid.UUID][]repository.Asset{},
		reminders:    map[uuid.UUID][]repository.Reminder{},
		failRulesFor: map[uuid.UUID]bool{},
	}
}

func (s *fakeStore) ListHomes(context.Context) ([]repository.Home, error) {
	if s.listHomesErr != nil {
		return nil, s.listHomesErr
	}
	return s.homes, nil
}

func (s *fakeStore) ListAssets(_ context.Context, homeID uuid.UUID) ([]repository.Asset, error) {
	return s.assets[homeID], nil
}

func (s *fakeStore) ListEnabledRules(_ context.Context, homeID uuid.UUID) ([]repository.Rule, error) {
	if s.failRulesFor[homeID] {
		return nil, errors.New("connection reset")
	}
	return s.rules[homeID], nil
}

func (s *fakeStore) ListReminders(_ context.Context, homeID uuid.UUID) ([]repository.Reminder, error) {
	return s.reminders[homeID], nil
}

func (s *fakeStore) ListSnoozedDue(_ context.Context, homeID uuid.UUID, runDate time.Time) ([]repository.Reminder, error) {
	var due []repository.Reminder
	for _, rem := range s.reminders[homeID] {
		if rem.Status == repository.StatusSnoozed && rem.SnoozedUntil != nil && !rem.SnoozedUntil.After(runDate) {
			due = append(due, rem)
		}
	}
	return due, nil
}

func (s *fakeStore) ReopenReminders(_ context.Context, ids []uuid.UUID) error {
	target := map[uuid.UUID]bool{}
	for _, id := range ids {
		target[id] = true
	}
	for homeID, reminders := range s.reminders {
		for i := range reminders {
			if target[reminders[i].ID] {
				reminders[i].Status = repository.StatusOpen
				reminders[i].SnoozedUntil = nil
			}
		}
		s.reminders[homeID] = reminders
	}
	return nil
}

func (s *fakeStore) InsertReminder(_ context.Context, rem *repository.Reminder) error {
	if s.failInserts > 0 {
		s.failInserts--
		return errors.New("insert failed")
	}
	rem.ID = uuid.New()
	s.reminders[rem.HomeID] = append(s.reminders[rem.HomeID], *rem)
	return nil
}

func (s *fakeStore) MarkNotified(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.notified = append(s.notified, id)
	return nil
}

type fakeOutbox struct {
	entries  []outbox.InsertParams
	failNext bool
}

func (o *fakeOutbox) Insert(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	if o.failNext {
		o.failNext = false
		return uuid.Nil, errors.New("outbox insert failed")
	}
	o.entries = append(o.entries, p)
	return uuid.New(), nil
}

func testEngine(store *fakeStore, ob *fakeOutbox) *Engine {
	return NewEngine(store, ob, BuiltinDefaults(), "https://app.example.com", 1, logger.New("development"))
}

func TestEngineRun_WaterHeaterScenario(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{}

	home := repository.Home{ID: uuid.New(), Name: "Maple House", OwnerEmail: "owner@example.com"}
	store.homes = []repository.Home{home}
	store.assets[home.ID] = []repository.Asset{{
		ID:          uuid.New(),
		HomeID:      home.ID,
		Category:    "water heater",
		DisplayName: "Water Heater",
		InstallDate: datePtr(2015, time.June, 1),
	}}

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 home result, got %d", len(results))
	}
	// Ten years past install with a 12 month default interval: far overdue,
	// and at end of expected lifetime, so overdue + high_risk together.
	if results[0].RemindersCreated != 2 {
		t.Fatalf("expected 2 reminders, got %d", results[0].RemindersCreated)
	}
	if results[0].OutboxCreated != 2 {
		t.Fatalf("expected 2 outbox entries, got %d", results[0].OutboxCreated)
	}

	types := map[string]bool{}
	for _, rem := range store.reminders[home.ID] {
		types[rem.Type] = true
		if rem.Meta["assetDisplayName"] != "Water Heater" {
			t.Fatalf("expected asset display name in meta, got %v", rem.Meta)
		}
	}
	if !types[repository.TypeOverdue] || !types[repository.TypeHighRisk] {
		t.Fatalf("expected overdue and high_risk reminders, got %v", types)
	}

	for _, entry := range ob.entries {
		if entry.Status != outbox.StatusQueued {
			t.Fatalf("expected queued outbox entry, got %s", entry.Status)
		}
		if entry.Recipient != "owner@example.com" {
			t.Fatalf("expected owner recipient, got %s", entry.Recipient)
		}
	}

	// An immediate second run for the same date is a no-op.
	results, err = engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if results[0].RemindersCreated != 0 || results[0].OutboxCreated != 0 {
		t.Fatalf("expected idempotent second run, got %d reminders, %d outbox",
			results[0].RemindersCreated, results[0].OutboxCreated)
	}
}

func TestEngineRun_ReopensElapsedSnoozes(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{}

	home := repository.Home{ID: uuid.New(), Name: "Maple House", OwnerEmail: "owner@example.com"}
	store.homes = []repository.Home{home}

	elapsed := repository.Reminder{
		ID:             uuid.New(),
		HomeID:         home.ID,
		AssetID:        uuid.New(),
		Type:           repository.TypeDueSoon,
		CreatedForDate: date(2025, time.May, 20),
		Status:         repository.StatusSnoozed,
		SnoozedUntil:   datePtr(2025, time.May, 31),
	}
	future := repository.Reminder{
		ID:             uuid.New(),
		HomeID:         home.ID,
		AssetID:        uuid.New(),
		Type:           repository.TypeOverdue,
		CreatedForDate: date(2025, time.May, 20),
		Status:         repository.StatusSnoozed,
		SnoozedUntil:   datePtr(2025, time.June, 2),
	}
	store.reminders[home.ID] = []repository.Reminder{elapsed, future}

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var reopened, stillSnoozed *repository.Reminder
	for i := range store.reminders[home.ID] {
		rem := &store.reminders[home.ID][i]
		switch rem.ID {
		case elapsed.ID:
			reopened = rem
		case future.ID:
			stillSnoozed = rem
		}
	}
	if reopened == nil || reopened.Status != repository.StatusOpen || reopened.SnoozedUntil != nil {
		t.Fatalf("expected elapsed snooze reopened, got %+v", reopened)
	}
	if stillSnoozed == nil || stillSnoozed.Status != repository.StatusSnoozed {
		t.Fatalf("expected future snooze untouched, got %+v", stillSnoozed)
	}

	// Exactly one re-notification, for the reopened reminder only.
	if len(ob.entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(ob.entries))
	}
	if ob.entries[0].ReminderID != elapsed.ID {
		t.Fatalf("expected outbox entry for reopened reminder")
	}
	if results[0].OutboxCreated != 1 {
		t.Fatalf("expected outbox count 1, got %d", results[0].OutboxCreated)
	}
}

func TestEngineRun_HomeLoadFailureIsIsolated(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{}

	broken := repository.Home{ID: uuid.New(), Name: "Broken", OwnerEmail: "a@example.com"}
	healthy := repository.Home{ID: uuid.New(), Name: "Healthy", OwnerEmail: "b@example.com"}
	store.homes = []repository.Home{broken, healthy}
	store.failRulesFor[broken.ID] = true
	store.assets[healthy.ID] = []repository.Asset{{
		ID:          uuid.New(),
		HomeID:      healthy.ID,
		Category:    "hvac",
		DisplayName: "Furnace",
		InstallDate: datePtr(2024, time.November, 1),
	}}

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Err == nil {
		t.Fatalf("expected error for broken home")
	}
	if results[1].Err != nil {
		t.Fatalf("unexpected error for healthy home: %v", results[1].Err)
	}
	// Installed 2024-11-01 + 6 month hvac interval = due 2025-05-01, past
	// the grace period by run date.
	if results[1].RemindersCreated == 0 {
		t.Fatalf("expected reminders for healthy home")
	}
}

func TestEngineRun_InsertFailureSkipsRemainingDecisionsForAsset(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{}

	home := repository.Home{ID: uuid.New(), Name: "Maple House", OwnerEmail: "owner@example.com"}
	store.homes = []repository.Home{home}
	store.assets[home.ID] = []repository.Asset{
		{
			// Produces overdue + high_risk; the first insert fails, so
			// both decisions are dropped for this run.
			ID:          uuid.New(),
			HomeID:      home.ID,
			Category:    "water heater",
			DisplayName: "Water Heater",
			InstallDate: datePtr(2015, time.June, 1),
		},
		{
			// Produces a single overdue decision; unaffected by the
			// first asset's failure.
			ID:              uuid.New(),
			HomeID:          home.ID,
			Category:        "hvac",
			DisplayName:     "Furnace",
			LastServiceDate: datePtr(2024, time.October, 1),
		},
	}
	store.failInserts = 1

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].RemindersCreated != 1 {
		t.Fatalf("expected 1 reminder after insert failure, got %d", results[0].RemindersCreated)
	}
	reminders := store.reminders[home.ID]
	if len(reminders) != 1 || reminders[0].Meta["assetDisplayName"] != "Furnace" {
		t.Fatalf("expected only the furnace reminder to persist, got %+v", reminders)
	}
}

func TestEngineRun_MissingOwnerEmailSkipsOutbox(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{}

	home := repository.Home{ID: uuid.New(), Name: "Maple House"}
	store.homes = []repository.Home{home}
	store.assets[home.ID] = []repository.Asset{{
		ID:              uuid.New(),
		HomeID:          home.ID,
		Category:        "hvac",
		DisplayName:     "Furnace",
		LastServiceDate: datePtr(2024, time.October, 1),
	}}

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].RemindersCreated != 1 {
		t.Fatalf("expected 1 reminder, got %d", results[0].RemindersCreated)
	}
	if len(ob.entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(ob.entries))
	}
	entry := ob.entries[0]
	if entry.Status != outbox.StatusSkipped {
		t.Fatalf("expected skipped status, got %s", entry.Status)
	}
	if entry.Recipient != "unknown" {
		t.Fatalf("expected unknown recipient, got %s", entry.Recipient)
	}
	if entry.Error == nil || *entry.Error == "" {
		t.Fatalf("expected explanatory error on skipped entry")
	}
}

func TestEngineRun_OutboxFailureDoesNotLoseReminder(t *testing.T) {
	runDate := date(2025, time.June, 1)
	store := newFakeStore()
	ob := &fakeOutbox{failNext: true}

	home := repository.Home{ID: uuid.New(), Name: "Maple House", OwnerEmail: "owner@example.com"}
	store.homes = []repository.Home{home}
	store.assets[home.ID] = []repository.Asset{{
		ID:              uuid.New(),
		HomeID:          home.ID,
		Category:        "hvac",
		DisplayName:     "Furnace",
		LastServiceDate: datePtr(2024, time.October, 1),
	}}

	engine := testEngine(store, ob)
	results, err := engine.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].RemindersCreated != 1 {
		t.Fatalf("expected reminder to persist despite outbox failure, got %d", results[0].RemindersCreated)
	}
	if results[0].OutboxCreated != 0 {
		t.Fatalf("expected no outbox entries counted, got %d", results[0].OutboxCreated)
	}
	if len(store.notified) != 0 {
		t.Fatalf("expected reminder not marked notified when outbox insert fails")
	}
}

func TestEngineRun_HomeListingFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.listHomesErr = errors.New("database down")

	engine := testEngine(store, &fakeOutbox{})
	if _, err := engine.Run(context.Background(), date(2025, time.June, 1)); err == nil {
		t.Fatalf("expected fatal error when home listing fails")
	}
}
