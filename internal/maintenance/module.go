// Package maintenance provides the maintenance reminder domain module.
package maintenance

import (
	"fait_platform_backend/internal/maintenance/handler"
	"fait_platform_backend/internal/maintenance/repository"
	"fait_platform_backend/internal/maintenance/service"
	"fait_platform_backend/internal/notification/outbox"
	"fait_platform_backend/platform/config"
	"fait_platform_backend/platform/logger"
	"fait_platform_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the maintenance domain module
type Module struct {
	handler *handler.Handler
	engine  *service.Engine
}

// Config is the slice of application config the module needs.
type Config interface {
	config.NotificationConfig
	config.MaintenanceConfig
}

// New creates a new maintenance module with all dependencies wired
func New(pool *pgxpool.Pool, val *validator.Validator, cfg Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	outboxRepo := outbox.New(pool)
	engine := service.NewEngine(repo, outboxRepo, service.BuiltinDefaults(),
		cfg.GetAppBaseURL(), cfg.GetMaintenanceWorkers(), log)
	h := handler.New(engine, val)

	return &Module{
		handler: h,
		engine:  engine,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "maintenance"
}

// Engine exposes the reminder engine for the scheduler worker and CLI runs.
func (m *Module) Engine() *service.Engine {
	return m.engine
}

// RegisterRoutes registers the module's routes under the given group.
func (m *Module) RegisterRoutes(rg *gin.RouterGroup) {
	maintenance := rg.Group("/maintenance")
	m.handler.RegisterRoutes(maintenance)
}
