// Package calllog provides the call coordination bounded context: per-team
// call locks shared by multiple concurrent callers, outcome tracking, and
// call statistics over the pending population.
package calllog

import (
	"hackdesk_backend/internal/calllog/handler"
	"hackdesk_backend/internal/calllog/repository"
	"hackdesk_backend/internal/calllog/service"
	apphttp "hackdesk_backend/internal/http"
	"hackdesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the call-log bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the call-log module with its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calllog"
}

// RegisterRoutes mounts call-log routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/call-log")
	group.GET("/teams", m.handler.Sheet)
	group.GET("/stats", m.handler.Stats)
	group.POST("/teams/:teamId/lock", m.handler.Lock)
	group.POST("/teams/:teamId/status", m.handler.Status)
	group.POST("/teams/:teamId/release", m.handler.Release)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
