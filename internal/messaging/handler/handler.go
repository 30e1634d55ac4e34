// Package handler exposes the bulk messaging HTTP API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hackdesk_backend/internal/messaging/repository"
	"hackdesk_backend/internal/messaging/service"
	"hackdesk_backend/internal/messaging/transport"
	"hackdesk_backend/platform/httpkit"
	"hackdesk_backend/platform/validator"
)

// Handler handles messaging HTTP requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates a messaging handler.
func New(svc *service.Service) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
	}
}

func toSendResponse(result service.DispatchResult) transport.SendResponse {
	resp := transport.SendResponse{
		Stats: transport.SendStats{
			Sent:   result.Sent,
			Failed: result.Failed,
			Total:  result.Total,
		},
		Errors: make([]transport.SendErrorResponse, 0, len(result.Errors)),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, transport.SendErrorResponse{Email: e.Email, Error: e.Error})
	}
	return resp
}

// SendVerificationReminders sends the reminder template to all unverified
// team leaders.
// POST /teams/send-verification-reminders
func (h *Handler) SendVerificationReminders(c *gin.Context) {
	result, err := h.service.SendVerificationReminders(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSendResponse(result))
}

// SendCustomEmail sends a caller-supplied email to a target group.
// POST /teams/send-custom-email
func (h *Handler) SendCustomEmail(c *gin.Context) {
	var req transport.GroupSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid send request", err.Error())
		return
	}

	result, err := h.service.SendToGroup(c.Request.Context(), req.TargetGroup, req.Subject, req.HTMLContent)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSendResponse(result))
}

// SendCustomEmailRecipients sends to an explicit recipient list.
// POST /teams/send-custom-email-recipients
func (h *Handler) SendCustomEmailRecipients(c *gin.Context) {
	var req transport.RecipientSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid send request", err.Error())
		return
	}

	recipients := make([]repository.Recipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, repository.Recipient{Email: r.Email, Name: r.Name})
	}

	result, err := h.service.SendToRecipients(c.Request.Context(), recipients, req.Subject, req.HTMLContent)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSendResponse(result))
}

// Templates returns the embedded template catalog.
// GET /teams/email-templates
func (h *Handler) Templates(c *gin.Context) {
	all := h.service.Templates()
	resp := make([]transport.TemplateResponse, 0, len(all))
	for _, t := range all {
		resp = append(resp, transport.TemplateResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Subject:     t.Subject,
			Body:        t.Body,
		})
	}
	httpkit.OK(c, gin.H{"templates": resp})
}

// EmailStats aggregates the communication log.
// GET /teams/email-stats
func (h *Handler) EmailStats(c *gin.Context) {
	stats, err := h.service.EmailStats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.EmailStatsResponse{Sent: stats.Sent, Failed: stats.Failed, Total: stats.Total})
}

// RecipientCounts reports audience sizes per target group.
// GET /teams/email-recipient-counts
func (h *Handler) RecipientCounts(c *gin.Context) {
	counts, err := h.service.RecipientCounts(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecipientCountsResponse{
		UnverifiedAll:        counts.UnverifiedAll,
		UnverifiedLeaderOnly: counts.UnverifiedLeaderOnly,
		VerifiedAll:          counts.VerifiedAll,
		VerifiedLeaderOnly:   counts.VerifiedLeaderOnly,
		All:                  counts.All,
	})
}

// CreateCampaign creates an asynchronous bulk send.
// POST /campaigns
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req transport.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid campaign request", err.Error())
		return
	}

	campaign, err := h.service.CreateCampaign(c.Request.Context(), req.TargetGroup, req.Subject, req.HTMLContent)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, toCampaignResponse(campaign))
}

// GetCampaign polls campaign status.
// GET /campaigns/:campaignId
func (h *Handler) GetCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid campaign id", nil)
		return
	}

	campaign, err := h.service.GetCampaign(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCampaignResponse(campaign))
}

func toCampaignResponse(campaign *repository.Campaign) transport.CampaignResponse {
	return transport.CampaignResponse{
		CampaignID:  campaign.ID.String(),
		Subject:     campaign.Subject,
		TargetGroup: campaign.TargetGroup,
		Status:      campaign.Status,
		Sent:        campaign.Sent,
		Failed:      campaign.Failed,
		Total:       campaign.Total,
		Error:       campaign.ErrorMessage,
		CreatedAt:   campaign.CreatedAt,
		StartedAt:   campaign.StartedAt,
		FinishedAt:  campaign.FinishedAt,
	}
}
