// Package transport defines request/response DTOs for the messaging API.
package transport

import "time"

// SendStats summarizes one bulk send.
type SendStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// SendErrorResponse is one surfaced per-recipient failure.
type SendErrorResponse struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// SendResponse is returned by all synchronous bulk-send endpoints.
type SendResponse struct {
	Stats  SendStats           `json:"stats"`
	Errors []SendErrorResponse `json:"errors"`
}

// GroupSendRequest targets a named recipient group.
type GroupSendRequest struct {
	Subject     string `json:"subject" validate:"required,min=1,max=300"`
	HTMLContent string `json:"htmlContent" validate:"required"`
	TargetGroup string `json:"targetGroup" validate:"required"`
}

// CustomRecipient is one entry of a caller-supplied audience.
type CustomRecipient struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// RecipientSendRequest targets an explicit recipient list.
type RecipientSendRequest struct {
	Subject     string            `json:"subject" validate:"required,min=1,max=300"`
	HTMLContent string            `json:"htmlContent" validate:"required"`
	Recipients  []CustomRecipient `json:"recipients" validate:"required,min=1,dive"`
}

// TemplateResponse is one catalog template.
type TemplateResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// EmailStatsResponse aggregates the communication log.
type EmailStatsResponse struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// RecipientCountsResponse reports audience sizes per target group.
type RecipientCountsResponse struct {
	UnverifiedAll        int `json:"unverifiedAll"`
	UnverifiedLeaderOnly int `json:"unverifiedLeaderOnly"`
	VerifiedAll          int `json:"verifiedAll"`
	VerifiedLeaderOnly   int `json:"verifiedLeaderOnly"`
	All                  int `json:"all"`
}

// CampaignRequest creates an asynchronous bulk send.
type CampaignRequest struct {
	Subject     string `json:"subject" validate:"required,min=1,max=300"`
	HTMLContent string `json:"htmlContent" validate:"required"`
	TargetGroup string `json:"targetGroup" validate:"required"`
}

// CampaignResponse reports campaign state for polling.
type CampaignResponse struct {
	CampaignID  string     `json:"campaignId"`
	Subject     string     `json:"subject"`
	TargetGroup string     `json:"targetGroup"`
	Status      string     `json:"status"`
	Sent        int        `json:"sent"`
	Failed      int        `json:"failed"`
	Total       int        `json:"total"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}
