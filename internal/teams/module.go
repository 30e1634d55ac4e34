// Package teams provides the team registration bounded context: CSV
// import with reconciliation, verification, listings, and export.
package teams

import (
	"hackdesk_backend/internal/events"
	apphttp "hackdesk_backend/internal/http"
	"hackdesk_backend/internal/storage"
	"hackdesk_backend/internal/teams/handler"
	"hackdesk_backend/internal/teams/repository"
	"hackdesk_backend/internal/teams/service"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the teams bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the teams module with its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.ImportConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, cfg, log)
	h := handler.New(svc, cfg)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "teams"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetArchiver enables raw-CSV archiving of uploads.
func (m *Module) SetArchiver(archiver storage.Archiver, bucket string) {
	m.service.SetArchiver(archiver, bucket)
}

// RegisterRoutes mounts team routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/teams")
	group.POST("/upload-csv", m.handler.UploadCSV)
	group.GET("/stats", m.handler.Stats)
	group.GET("/verified", m.handler.ListVerified)
	group.GET("/unverified", m.handler.ListUnverified)
	group.PATCH("/:teamId/verify", m.handler.Verify)
	group.GET("/export", m.handler.ExportCSV)
	group.GET("/import-jobs", m.handler.ListImportJobs)
	group.GET("/skipped-rows", m.handler.ListSkippedRows)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
