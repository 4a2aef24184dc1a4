package scheduler

import (
	"context"
	"fmt"
	"time"

	"fait_platform_backend/internal/notification/outbox"
	"fait_platform_backend/platform/config"
	"fait_platform_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationOutboxDispatcher moves queued outbox rows onto the asynq queue.
// Delivery itself happens in the worker so dispatch stays cheap and retryable.
type NotificationOutboxDispatcher struct {
	client    *asynq.Client
	queue     string
	repo      *outbox.Repository
	batchSize int
	log       *logger.Logger
}

func NewNotificationOutboxDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, batchSize int, log *logger.Logger) (*NotificationOutboxDispatcher, error) {
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

	return &NotificationOutboxDispatcher{
		client:    asynq.NewClient(opt),
		queue:     queue,
		repo:      outbox.New(pool),
		batchSize: batchSize,
		log:       log,
	}, nil
}

func (d *NotificationOutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *NotificationOutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := d.repo.ClaimQueued(ctx, d.batchSize)
		if err != nil {
			d.log.Warn("outbox claim failed", "error", err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		for _, rec := range records {
			task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{
				OutboxID: rec.ID.String(),
				HomeID:   rec.HomeID.String(),
			})
			if err != nil {
				msg := err.Error()
				_ = d.repo.MarkQueued(ctx, rec.ID, &msg)
				continue
			}

			_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
			if err != nil {
				msg := err.Error()
				_ = d.repo.MarkQueued(ctx, rec.ID, &msg)
				continue
			}
		}
	}
}
