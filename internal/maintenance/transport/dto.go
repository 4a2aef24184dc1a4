package transport

import "fait_platform_backend/internal/maintenance/service"

// TriggerRunRequest is the body for POST /api/maintenance/runs. The date is
// optional and defaults to today; supplying it supports backfills.
type TriggerRunRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RunResponse summarizes one engine run.
type RunResponse struct {
	RunDate          string                  `json:"runDate"`
	Homes            int                     `json:"homes"`
	FailedHomes      int                     `json:"failedHomes"`
	RemindersCreated int                     `json:"remindersCreated"`
	OutboxCreated    int                     `json:"outboxCreated"`
	Results          []service.HomeRunResult `json:"results"`
}
