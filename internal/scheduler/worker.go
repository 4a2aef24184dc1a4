package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fait_platform_backend/internal/email"
	"fait_platform_backend/internal/maintenance/service"
	"fait_platform_backend/internal/notification/outbox"
	"fait_platform_backend/platform/config"
	"fait_platform_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReminderGenerator is the slice of the maintenance engine the worker invokes.
type ReminderGenerator interface {
	Run(ctx context.Context, runDate time.Time) ([]service.HomeRunResult, error)
}

// outboxStore is the slice of the outbox repository the delivery handler uses.
type outboxStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkSending(ctx context.Context, id uuid.UUID) error
	MarkQueued(ctx context.Context, id uuid.UUID, lastError *string) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// maxDeliveryAttempts caps how often a single outbox entry is retried before
// it is marked failed for good.
const maxDeliveryAttempts = 5

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine ReminderGenerator
	outbox outboxStore
	sender email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, engine ReminderGenerator, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: engine,
		outbox: outbox.New(pool),
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskGenerateReminders, w.handleGenerateReminders)
	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return
	}

	<-ctx.Done()
	w.server.Shutdown()
}

// handleGenerateReminders runs the engine for the payload's date (today when
// absent). The engine is idempotent per date, so an asynq retry after a
// partial run is safe.
func (w *Worker) handleGenerateReminders(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGenerateRemindersPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	runDate := time.Now().UTC()
	if payload.Date != "" {
		runDate, err = time.Parse(time.DateOnly, payload.Date)
		if err != nil {
			return fmt.Errorf("invalid run date %q: %w", payload.Date, err)
		}
	}

	_, err = w.engine.Run(ctx, runDate)
	return err
}

// handleNotificationOutboxDue delivers one claimed outbox entry by email.
func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return fmt.Errorf("invalid outbox id %q: %w", payload.OutboxID, err)
	}

	rec, err := w.outbox.GetByID(ctx, outboxID)
	if err != nil {
		return fmt.Errorf("load outbox entry: %w", err)
	}
	if rec.Status != outbox.StatusSending {
		// Already delivered or returned to the queue; nothing to do.
		return nil
	}

	if err := w.outbox.MarkSending(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark sending: %w", err)
	}

	var data email.ReminderData
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		msg := fmt.Sprintf("invalid payload: %v", err)
		_ = w.outbox.MarkFailed(ctx, rec.ID, msg)
		w.log.Error("outbox payload unmarshal failed", "outbox_id", rec.ID, "error", err)
		return nil
	}

	if err := w.sender.SendMaintenanceReminder(ctx, rec.Recipient, rec.TemplateKey, data); err != nil {
		// MarkSending already counted this attempt.
		attempts := rec.Attempts + 1
		if attempts >= maxDeliveryAttempts {
			_ = w.outbox.MarkFailed(ctx, rec.ID, err.Error())
			w.log.Error("outbox delivery failed permanently",
				"outbox_id", rec.ID, "attempts", attempts, "error", err)
			return nil
		}

		// Redelivery goes through the dispatcher re-claiming the queued row,
		// not asynq's task retry: a retried task would find the entry no
		// longer in sending and no-op, or race a freshly claimed copy.
		msg := err.Error()
		if qErr := w.outbox.MarkQueued(ctx, rec.ID, &msg); qErr != nil {
			w.log.Error("failed to requeue outbox entry", "outbox_id", rec.ID, "error", qErr)
		}
		w.log.Warn("outbox delivery failed, requeued",
			"outbox_id", rec.ID, "attempts", attempts, "error", err)
		return nil
	}

	if err := w.outbox.MarkSent(ctx, rec.ID); err != nil {
		w.log.Error("failed to mark outbox entry sent", "outbox_id", rec.ID, "error", err)
	}
	return nil
}
