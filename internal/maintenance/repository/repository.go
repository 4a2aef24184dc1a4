package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reminder types emitted by the decision engine.
const (
	TypeDueSoon  = "due_soon"
	TypeOverdue  = "overdue"
	TypeHighRisk = "high_risk"
)

// Reminder statuses. The engine creates reminders as open and only ever
// transitions snoozed back to open; the portal owns the other transitions.
const (
	StatusOpen      = "open"
	StatusSnoozed   = "snoozed"
	StatusCompleted = "completed"
	StatusDismissed = "dismissed"
)

// Home represents the home database model, read-only to this module.
type Home struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Address    string    `db:"address"`
	City       string    `db:"city"`
	State      string    `db:"state"`
	ZipCode    string    `db:"zip_code"`
	OwnerID    uuid.UUID `db:"owner_id"`
	OwnerEmail string    `db:"owner_email"`
}

// Asset represents a tracked physical component of a home.
type Asset struct {
	ID                    uuid.UUID  `db:"id"`
	HomeID                uuid.UUID  `db:"home_id"`
	Category              string     `db:"category"`
	DisplayName           string     `db:"display_name"`
	InstallDate           *time.Time `db:"install_date"`
	LastServiceDate       *time.Time `db:"last_service_date"`
	WarrantyEndDate       *time.Time `db:"warranty_end_date"`
	ServiceIntervalMonths *int       `db:"service_interval_months"`
}

// Rule represents a maintenance scheduling override at home, category or
// asset scope.
type Rule struct {
	ID               uuid.UUID  `db:"id"`
	HomeID           uuid.UUID  `db:"home_id"`
	Scope            string     `db:"scope"`
	Category         *string    `db:"category"`
	AssetID          *uuid.UUID `db:"asset_id"`
	Enabled          bool       `db:"enabled"`
	IntervalMonths   *int       `db:"interval_months"`
	LeadDays         *int       `db:"lead_days"`
	OverdueGraceDays *int       `db:"overdue_grace_days"`
}

// Reminder represents the maintenance reminder database model.
type Reminder struct {
	ID             uuid.UUID      `db:"id"`
	HomeID         uuid.UUID      `db:"home_id"`
	AssetID        uuid.UUID      `db:"asset_id"`
	Type           string         `db:"reminder_type"`
	DueDate        *time.Time     `db:"due_date"`
	CreatedForDate time.Time      `db:"created_for_date"`
	Status         string         `db:"status"`
	SnoozedUntil   *time.Time     `db:"snoozed_until"`
	LastNotifiedAt *time.Time     `db:"last_notified_at"`
	Meta           map[string]any `db:"meta"`
}

// Repository provides database operations for the maintenance module.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new maintenance repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListHomes returns every home with its owner contact email.
func (r *Repository) ListHomes(ctx context.Context) ([]Home, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, city, state, zip_code, owner_id, owner_email
		FROM homes
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list homes: %w", err)
	}
	defer rows.Close()

	var homes []Home
	for rows.Next() {
		var h Home
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.State, &h.ZipCode, &h.OwnerID, &h.OwnerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan home: %w", err)
		}
		homes = append(homes, h)
	}
	return homes, rows.Err()
}

// ListAssets returns all assets for a home.
func (r *Repository) ListAssets(ctx context.Context, homeID uuid.UUID) ([]Asset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, home_id, category, display_name, install_date, last_service_date,
		       warranty_end_date, service_interval_months
		FROM assets
		WHERE home_id = $1
		ORDER BY created_at`, homeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.HomeID, &a.Category, &a.DisplayName, &a.InstallDate,
			&a.LastServiceDate, &a.WarrantyEndDate, &a.ServiceIntervalMonths); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ListEnabledRules returns the enabled maintenance rules for a home.
func (r *Repository) ListEnabledRules(ctx context.Context, homeID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, home_id, scope, category, asset_id, enabled, interval_months,
		       lead_days, overdue_grace_days
		FROM maintenance_rules
		WHERE home_id = $1 AND enabled`, homeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.HomeID, &rule.Scope, &rule.Category, &rule.AssetID,
			&rule.Enabled, &rule.IntervalMonths, &rule.LeadDays, &rule.OverdueGraceDays); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListReminders returns all existing reminders for a home.
func (r *Repository) ListReminders(ctx context.Context, homeID uuid.UUID) ([]Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, home_id, asset_id, reminder_type, due_date, created_for_date,
		       status, snoozed_until, last_notified_at, meta
		FROM maintenance_reminders
		WHERE home_id = $1`, homeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// ListSnoozedDue returns the snoozed reminders for a home whose snooze window
// has elapsed as of runDate.
func (r *Repository) ListSnoozedDue(ctx context.Context, homeID uuid.UUID, runDate time.Time) ([]Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, home_id, asset_id, reminder_type, due_date, created_for_date,
		       status, snoozed_until, last_notified_at, meta
		FROM maintenance_reminders
		WHERE home_id = $1 AND status = 'snoozed' AND snoozed_until <= $2`, homeID, runDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list snoozed reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// ReopenReminders transitions the given reminders back to open and clears
// their snooze date.
func (r *Repository) ReopenReminders(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE maintenance_reminders
		SET status = 'open', snoozed_until = NULL, updated_at = now()
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to reopen reminders: %w", err)
	}
	return nil
}

// InsertReminder inserts a new reminder and fills in its generated ID.
func (r *Repository) InsertReminder(ctx context.Context, rem *Reminder) error {
	metaBytes, err := json.Marshal(rem.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder meta: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO maintenance_reminders
			(home_id, asset_id, reminder_type, due_date, created_for_date, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		rem.HomeID, rem.AssetID, rem.Type, rem.DueDate, rem.CreatedForDate, rem.Status, metaBytes,
	).Scan(&rem.ID)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	return nil
}

// MarkNotified stamps the reminder's last notification time after an outbox
// entry has been written for it.
func (r *Repository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE maintenance_reminders
		SET last_notified_at = $2, updated_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark reminder notified: %w", err)
	}
	return nil
}

func scanReminder(scan func(dest ...any) error) (Reminder, error) {
	var rem Reminder
	var metaBytes []byte
	if err := scan(&rem.ID, &rem.HomeID, &rem.AssetID, &rem.Type, &rem.DueDate,
		&rem.CreatedForDate, &rem.Status, &rem.SnoozedUntil, &rem.LastNotifiedAt, &metaBytes); err != nil {
		return Reminder{}, fmt.Errorf("failed to scan reminder: %w", err)
	}
	if len(metaBytes) > 0 {
		if err := json.Unmarshal(metaBytes, &rem.Meta); err != nil {
			return Reminder{}, fmt.Errorf("failed to unmarshal reminder meta: %w", err)
		}
	}
	return rem, nil
}
