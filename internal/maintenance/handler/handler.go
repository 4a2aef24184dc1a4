package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"fait_platform_backend/internal/maintenance/service"
	"fait_platform_backend/internal/maintenance/transport"
	"fait_platform_backend/platform/apperr"
	"fait_platform_backend/platform/httpkit"
	"fait_platform_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// ReminderEngine is the slice of the maintenance engine the handler invokes.
type ReminderEngine interface {
	Run(ctx context.Context, runDate time.Time) ([]service.HomeRunResult, error)
}

// Handler handles HTTP requests for the maintenance module.
type Handler struct {
	engine ReminderEngine
	val    *validator.Validator
}

// New creates a new maintenance handler
func New(engine ReminderEngine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// RegisterRoutes registers the maintenance routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/runs", h.TriggerRun)
}

// TriggerRun handles POST /api/maintenance/runs. Intended for admin tooling
// and backfills; the daily run goes through the scheduler.
func (h *Handler) TriggerRun(c *gin.Context) {
	var req transport.TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		vErr := apperr.Validation(msgValidationFailed)
		vErr.Details = err.Error()
		httpkit.HandleError(c, vErr)
		return
	}

	runDate := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			httpkit.HandleError(c, apperr.Validation("date must be YYYY-MM-DD"))
			return
		}
		runDate = parsed
	}

	results, err := h.engine.Run(c.Request.Context(), runDate)
	if err != nil {
		// Per-home failures are reported inside results; an error here means
		// the run itself could not proceed.
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "reminder run failed", err))
		return
	}

	resp := transport.RunResponse{
		RunDate: runDate.Format(time.DateOnly),
		Homes:   len(results),
		Results: results,
	}
	for _, result := range results {
		if result.Err != nil {
			resp.FailedHomes++
		}
		resp.RemindersCreated += result.RemindersCreated
		resp.OutboxCreated += result.OutboxCreated
	}

	httpkit.OK(c, resp)
}
