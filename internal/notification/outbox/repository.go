package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	// StatusQueued marks an entry awaiting delivery.
	StatusQueued Status = "queued"
	// StatusSkipped marks an entry that could not be routed (e.g. no
	// recipient); it is terminal and never delivered.
	StatusSkipped Status = "skipped"
	// StatusSending marks an entry claimed by the dispatcher.
	StatusSending Status = "sending"
	// StatusSent and StatusFailed are terminal delivery outcomes.
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"

	errRepoNotConfigured = "outbox repository not configured"
)

// Record is a notification outbox row.
type Record struct {
	ID          uuid.UUID
	HomeID      uuid.UUID
	ReminderID  uuid.UUID
	Channel     string
	Recipient   string
	TemplateKey string
	Payload     json.RawMessage
	Status      Status
	Error       *string
	Attempts    int
}

// InsertParams describes a new outbox entry.
type InsertParams struct {
	HomeID      uuid.UUID
	ReminderID  uuid.UUID
	Recipient   string
	TemplateKey string
	Payload     any
	Status      Status // optional; defaults to queued
	Error       *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, errors.New(errRepoNotConfigured)
	}
	if p.HomeID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("homeId is required")
	}
	if p.ReminderID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("reminderId is required")
	}
	if p.TemplateKey == "" {
		return uuid.Nil, fmt.Errorf("templateKey is required")
	}
	status := p.Status
	if status == "" {
		status = StatusQueued
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		`INSERT INTO notification_outbox (home_id, reminder_id, channel, recipient, template_key, payload, status, error)
		 VALUES ($1, $2, 'email', $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.HomeID, p.ReminderID, p.Recipient, p.TemplateKey, payloadBytes, string(status), p.Error,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if r == nil || r.pool == nil {
		return Record{}, errors.New(errRepoNotConfigured)
	}

	var rec Record
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, home_id, reminder_id, channel, recipient, template_key, payload, status, error, attempts
		 FROM notification_outbox
		 WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.HomeID, &rec.ReminderID, &rec.Channel, &rec.Recipient,
		&rec.TemplateKey, &rec.Payload, &status, &rec.Error, &rec.Attempts)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

// ClaimQueued transitions up to limit queued entries to sending and returns
// them. FOR UPDATE SKIP LOCKED keeps concurrent dispatchers from claiming the
// same rows.
func (r *Repository) ClaimQueued(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'queued'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'sending', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.home_id, o.reminder_id, o.channel, o.recipient, o.template_key, o.payload, o.status, o.error, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.HomeID, &rec.ReminderID, &rec.Channel, &rec.Recipient,
			&rec.TemplateKey, &rec.Payload, &status, &rec.Error, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkQueued returns an entry to the queue, typically after a transient
// dispatch failure.
func (r *Repository) MarkQueued(ctx context.Context, id uuid.UUID, lastError *string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'queued', error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}

func (r *Repository) MarkSending(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'sending', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'sent', error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'failed', error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}
