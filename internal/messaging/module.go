// Package messaging provides the bulk email bounded context: template
// catalog, target-group sends, communication log reporting, and
// asynchronous campaigns.
package messaging

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hackdesk_backend/internal/email"
	"hackdesk_backend/internal/events"
	apphttp "hackdesk_backend/internal/http"
	"hackdesk_backend/internal/messaging/handler"
	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/internal/messaging/service"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/logger"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the messaging module. It subscribes to
// teams.imported so cached recipient counts never outlive an import.
func NewModule(pool *pgxpool.Pool, bus events.Bus, sender email.Sender, cfg config.MessagingConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	svc, err := service.New(repo, sender, cfg, log)
	if err != nil {
		return nil, err
	}

	bus.Subscribe(events.TeamsImported{}.EventName(), events.HandlerFunc(svc.HandleTeamsImported))

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetRecipientCountCache enables Redis-backed recipient count caching.
func (m *Module) SetRecipientCountCache(client *redis.Client) {
	m.service.SetRecipientCountCache(client)
}

// SetEnqueuer enables asynchronous campaign dispatch through the worker.
func (m *Module) SetEnqueuer(enqueuer service.CampaignEnqueuer) {
	m.service.SetEnqueuer(enqueuer)
}

// RegisterRoutes mounts messaging routes on the provided router context.
// Send endpoints live under /teams to match the dashboard's API shape.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	teams := ctx.V1.Group("/teams")
	teams.POST("/send-verification-reminders", m.handler.SendVerificationReminders)
	teams.POST("/send-custom-email", m.handler.SendCustomEmail)
	teams.POST("/send-custom-email-recipients", m.handler.SendCustomEmailRecipients)
	teams.GET("/email-templates", m.handler.Templates)
	teams.GET("/email-stats", m.handler.EmailStats)
	teams.GET("/email-recipient-counts", m.handler.RecipientCounts)

	campaigns := ctx.V1.Group("/campaigns")
	campaigns.POST("", m.handler.CreateCampaign)
	campaigns.GET("/:campaignId", m.handler.GetCampaign)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
