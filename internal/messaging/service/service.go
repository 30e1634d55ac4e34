// Package service implements bulk messaging: target-group resolution,
// per-recipient personalization, paced sequential dispatch, and campaign
// tracking.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"hackdesk_backend/internal/email"
	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/internal/messaging/templates"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/logger"
)

// Target-group selectors accepted by the custom-email endpoint.
const (
	GroupUnverifiedAll        = "unverified-all"
	GroupUnverifiedLeaderOnly = "unverified-leader-only"
	GroupVerifiedAll          = "verified-all"
	GroupVerifiedLeaderOnly   = "verified-leader-only"
	GroupAll                  = "all"
)

// reminderTemplateID is the catalog template behind
// POST /teams/send-verification-reminders.
const reminderTemplateID = "verification-reminder"

// CampaignEnqueuer hands a campaign to the background worker. Implemented
// by the scheduler's asynq client.
type CampaignEnqueuer interface {
	EnqueueCampaignDispatch(ctx context.Context, campaignID uuid.UUID) error
}

// Service orchestrates bulk email over the registration store.
type Service struct {
	repo     repository.Repository
	sender   email.Sender
	catalog  *templates.Catalog
	log      *logger.Logger
	cfg      config.MessagingConfig
	cache    *countsCache
	enqueuer CampaignEnqueuer
}

// New creates the messaging service. The template catalog is embedded; a
// broken catalog is a build defect, not a runtime condition.
func New(repo repository.Repository, sender email.Sender, cfg config.MessagingConfig, log *logger.Logger) (*Service, error) {
	catalog, err := templates.Load()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:    repo,
		sender:  sender,
		catalog: catalog,
		log:     log,
		cfg:     cfg,
	}, nil
}

// SetRecipientCountCache enables Redis-backed caching of recipient counts.
func (s *Service) SetRecipientCountCache(client *redis.Client) {
	s.cache = newCountsCache(client, s.cfg.GetRecipientCountCacheTTL(), s.log)
}

// SetEnqueuer enables asynchronous campaign dispatch through the worker.
// Without it, campaigns run inline on the API process.
func (s *Service) SetEnqueuer(enqueuer CampaignEnqueuer) {
	s.enqueuer = enqueuer
}

func (s *Service) newDispatcher() *dispatcher {
	return &dispatcher{
		sender:            s.sender,
		repo:              s.repo,
		log:               s.log,
		limiter:           rate.NewLimiter(rate.Every(s.cfg.GetSendInterval()), 1),
		maxReportedErrors: s.cfg.GetMaxReportedSendErrors(),
	}
}

// resolveGroup maps a target-group selector to a recipient query.
func (s *Service) resolveGroup(ctx context.Context, group string) ([]repository.Recipient, error) {
	switch group {
	case GroupUnverifiedAll:
		return s.repo.ListRecipients(ctx, "PENDING", false)
	case GroupUnverifiedLeaderOnly:
		return s.repo.ListRecipients(ctx, "PENDING", true)
	case GroupVerifiedAll:
		return s.repo.ListRecipients(ctx, "VERIFIED", false)
	case GroupVerifiedLeaderOnly:
		return s.repo.ListRecipients(ctx, "VERIFIED", true)
	case GroupAll:
		return s.repo.ListRecipients(ctx, "", false)
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown target group %q", group))
	}
}

// SendVerificationReminders sends the catalog reminder template to every
// unverified team leader.
func (s *Service) SendVerificationReminders(ctx context.Context) (DispatchResult, error) {
	tpl, ok := s.catalog.Get(reminderTemplateID)
	if !ok {
		return DispatchResult{}, apperr.Internal("reminder template missing from catalog")
	}

	recipients, err := s.resolveGroup(ctx, GroupUnverifiedLeaderOnly)
	if err != nil {
		return DispatchResult{}, err
	}
	return s.newDispatcher().dispatch(ctx, recipients, tpl.Subject, tpl.Body)
}

// SendToGroup sends a caller-supplied subject/body to a target group.
func (s *Service) SendToGroup(ctx context.Context, group, subject, htmlContent string) (DispatchResult, error) {
	recipients, err := s.resolveGroup(ctx, group)
	if err != nil {
		return DispatchResult{}, err
	}
	return s.newDispatcher().dispatch(ctx, recipients, subject, htmlContent)
}

// SendToRecipients sends to an explicit recipient list, bypassing the
// store. Used for registrants who never entered the team model, such as
// skipped rows from the last import.
func (s *Service) SendToRecipients(ctx context.Context, recipients []repository.Recipient, subject, htmlContent string) (DispatchResult, error) {
	return s.newDispatcher().dispatch(ctx, recipients, subject, htmlContent)
}

// Templates returns the embedded catalog.
func (s *Service) Templates() []templates.Template {
	return s.catalog.All()
}

// EmailStats aggregates the communication log.
func (s *Service) EmailStats(ctx context.Context) (repository.EmailStats, error) {
	return s.repo.GetEmailStats(ctx)
}

// RecipientCounts returns audience sizes per target group, served from the
// Redis cache when one is configured.
func (s *Service) RecipientCounts(ctx context.Context) (repository.RecipientCounts, error) {
	if s.cache != nil {
		if counts, ok := s.cache.get(ctx); ok {
			return counts, nil
		}
	}

	counts, err := s.repo.GetRecipientCounts(ctx)
	if err != nil {
		return repository.RecipientCounts{}, err
	}
	if s.cache != nil {
		s.cache.set(ctx, counts)
	}
	return counts, nil
}
