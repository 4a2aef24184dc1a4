package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskGenerateReminders = "maintenance.reminders.generate"

const TaskNotificationOutboxDue = "notification.outbox.due"

// GenerateRemindersPayload triggers one engine run. An empty Date means
// "today"; a set date (YYYY-MM-DD) supports backfills.
type GenerateRemindersPayload struct {
	Date string `json:"date,omitempty"`
}

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
	HomeID   string `json:"homeId"`
}

func NewGenerateRemindersTask(payload GenerateRemindersPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateReminders, data), nil
}

func ParseGenerateRemindersPayload(task *asynq.Task) (GenerateRemindersPayload, error) {
	var payload GenerateRemindersPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GenerateRemindersPayload{}, err
	}
	return payload, nil
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}
