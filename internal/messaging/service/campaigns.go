package service

import (
	"context"

	"github.com/google/uuid"

	"hackdesk_backend/internal/messaging/repository"
)

// CreateCampaign persists a campaign and hands it to the worker. When no
// worker is wired, the campaign is processed inline in a background
// goroutine so the endpoint still returns immediately.
func (s *Service) CreateCampaign(ctx context.Context, group, subject, htmlContent string) (*repository.Campaign, error) {
	// Validate the selector up front; a campaign with a bad group would
	// only fail later on the worker.
	if _, err := s.resolveGroup(ctx, group); err != nil {
		return nil, err
	}

	campaign := &repository.Campaign{
		ID:          uuid.New(),
		Subject:     subject,
		HTMLContent: htmlContent,
		TargetGroup: group,
		Status:      repository.CampaignPending,
	}
	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueCampaignDispatch(ctx, campaign.ID); err != nil {
			s.log.Error("campaign enqueue failed, falling back to inline dispatch", "campaignId", campaign.ID, "error", err)
			s.runInline(campaign.ID)
		}
		return campaign, nil
	}

	s.runInline(campaign.ID)
	return campaign, nil
}

// runInline processes a campaign on this process, detached from the
// request context so a closed connection does not cancel the send.
func (s *Service) runInline(campaignID uuid.UUID) {
	go func() {
		if err := s.ProcessCampaign(context.Background(), campaignID); err != nil {
			s.log.Error("inline campaign dispatch failed", "campaignId", campaignID, "error", err)
		}
	}()
}

// GetCampaign returns a campaign for status polling.
func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*repository.Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// ProcessCampaign runs a campaign to completion. Called by the asynq
// worker, or inline when no worker is configured.
func (s *Service) ProcessCampaign(ctx context.Context, id uuid.UUID) error {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}

	recipients, err := s.resolveGroup(ctx, campaign.TargetGroup)
	if err != nil {
		_ = s.repo.FinishCampaign(ctx, id, repository.CampaignFailed, 0, 0, err.Error())
		return err
	}
	if err := s.repo.MarkCampaignRunning(ctx, id, len(recipients)); err != nil {
		return err
	}

	result, err := s.newDispatcher().dispatch(ctx, recipients, campaign.Subject, campaign.HTMLContent)
	if err != nil {
		_ = s.repo.FinishCampaign(ctx, id, repository.CampaignFailed, result.Sent, result.Failed, err.Error())
		return err
	}

	s.log.Info("campaign finished", "campaignId", id, "sent", result.Sent, "failed", result.Failed)
	return s.repo.FinishCampaign(ctx, id, repository.CampaignCompleted, result.Sent, result.Failed, "")
}
