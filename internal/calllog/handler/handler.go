// Package handler exposes the call coordination HTTP API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackdesk_backend/internal/calllog/repository"
	"hackdesk_backend/internal/calllog/service"
	"hackdesk_backend/internal/calllog/transport"
	"hackdesk_backend/platform/httpkit"
	"hackdesk_backend/platform/validator"
)

// Handler handles call-log HTTP requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates a call-log handler.
func New(svc *service.Service) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
	}
}

// Sheet returns the call sheet for all pending teams.
// GET /call-log/teams
func (h *Handler) Sheet(c *gin.Context) {
	entries, err := h.service.Sheet(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.SheetResponse{
		Count: len(entries),
		Teams: make([]transport.SheetEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Teams = append(resp.Teams, transport.SheetEntryResponse{
			TeamID:       e.TeamID,
			TeamName:     e.TeamName,
			Organization: e.Organization,
			LeaderName:   e.LeaderName,
			LeaderEmail:  e.LeaderEmail,
			LeaderPhone:  e.LeaderPhone,
			Status:       e.Status,
			LockedBy:     e.LockedBy,
			LockedAt:     e.LockedAt,
			CalledBy:     e.CalledBy,
			Notes:        e.Notes,
			LastCalledAt: e.LastCalledAt,
		})
	}
	httpkit.OK(c, resp)
}

// Stats returns call-status counts over pending teams.
// GET /call-log/stats
func (h *Handler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.StatsResponse{
		NotCalled:   counts[repository.StatusNotCalled],
		BeingCalled: counts[repository.StatusBeingCalled],
		WillVerify:  counts[repository.StatusWillVerify],
		NotPicked:   counts[repository.StatusNotPicked],
		Rejected:    counts[repository.StatusRejected],
	}
	resp.Total = resp.NotCalled + resp.BeingCalled + resp.WillVerify + resp.NotPicked + resp.Rejected
	httpkit.OK(c, resp)
}

// Lock claims the call lock on a team for the named caller.
// POST /call-log/teams/:teamId/lock
func (h *Handler) Lock(c *gin.Context) {
	var req transport.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "callerName is required", err.Error())
		return
	}

	if err := h.service.Acquire(c.Request.Context(), c.Param("teamId"), req.CallerName); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "lockedBy": req.CallerName})
}

// Status records a call outcome and clears any lock on the team.
// POST /call-log/teams/:teamId/status
func (h *Handler) Status(c *gin.Context) {
	var req transport.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid status payload", err.Error())
		return
	}

	if err := h.service.Complete(c.Request.Context(), c.Param("teamId"), req.Status, req.CallerName, req.Notes); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "status": req.Status})
}

// Release gives up a lock without recording an outcome.
// POST /call-log/teams/:teamId/release
func (h *Handler) Release(c *gin.Context) {
	var req transport.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "callerName is required", err.Error())
		return
	}

	if err := h.service.Release(c.Request.Context(), c.Param("teamId"), req.CallerName); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}
