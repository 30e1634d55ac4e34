// Package handler exposes the teams module over HTTP.
package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hackdesk_backend/internal/teams/repository"
	"hackdesk_backend/internal/teams/service"
	"hackdesk_backend/internal/teams/transport"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/httpkit"
)

// Handler handles team registration endpoints.
type Handler struct {
	svc         *service.Service
	maxFileSize int64
}

// New creates a new teams handler.
func New(svc *service.Service, cfg config.ImportConfig) *Handler {
	return &Handler{svc: svc, maxFileSize: cfg.GetImportMaxFileSize()}
}

// UploadCSV ingests an Unstop registration export. The response is always
// structured, even on partial failure; row-level problems land in
// skippedRows and per-team errors in errors.
func (h *Handler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file upload", err.Error())
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		httpkit.Error(c, http.StatusBadRequest, fmt.Sprintf("file exceeds %d bytes", h.maxFileSize), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not open upload", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read upload", err.Error())
		return
	}

	replaceAll := !strings.EqualFold(c.DefaultPostForm("replaceAll", "true"), "false")

	result, err := h.svc.Import(c.Request.Context(), fileHeader.Filename, data, replaceAll)
	if httpkit.HandleError(c, err) {
		return
	}

	skipped := make([]transport.SkippedRowResponse, 0, len(result.Skipped))
	for _, row := range result.Skipped {
		skipped = append(skipped, transport.SkippedRowResponse{
			RowNumber: row.RowNumber,
			Name:      row.Name,
			Email:     row.Email,
			Phone:     row.Phone,
			Reason:    row.Reason,
		})
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	httpkit.OK(c, transport.UploadResponse{
		Success: len(result.Errors) == 0,
		JobID:   result.JobID.String(),
		Stats: transport.UploadStats{
			TotalTeams:   result.TotalTeams,
			NewTeams:     result.NewTeams,
			UpdatedTeams: result.UpdatedTeams,
			RemovedTeams: result.RemovedTeams,
			SkippedRows:  len(result.Skipped),
			Errors:       len(result.Errors),
		},
		SkippedRows: skipped,
		Errors:      errs,
	})
}

// Stats returns team counts by verification status.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StatsResponse{Stats: transport.TeamCounts{
		Total:    stats.Total,
		Verified: stats.Verified,
		Pending:  stats.Pending,
		Rejected: stats.Rejected,
	}})
}

// ListVerified returns verified teams with leader and members.
func (h *Handler) ListVerified(c *gin.Context) {
	teams, err := h.svc.ListVerified(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.TeamResponse, 0, len(teams))
	for _, team := range teams {
		responses = append(responses, toTeamResponse(team))
	}
	httpkit.OK(c, transport.TeamListResponse{Count: len(responses), Teams: responses})
}

// ListUnverified returns the leader-contact view of pending teams.
func (h *Handler) ListUnverified(c *gin.Context) {
	contacts, err := h.svc.ListUnverified(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, toContactResponse(contact))
	}
	httpkit.OK(c, transport.ContactListResponse{Count: len(responses), Teams: responses})
}

// Verify marks a team VERIFIED independent of imports.
func (h *Handler) Verify(c *gin.Context) {
	teamID := strings.TrimSpace(c.Param("teamId"))
	if teamID == "" {
		httpkit.Error(c, http.StatusBadRequest, "team id is required", nil)
		return
	}
	if err := h.svc.Verify(c.Request.Context(), teamID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "team verified"})
}

// ExportCSV streams the contact view as a CSV download.
func (h *Handler) ExportCSV(c *gin.Context) {
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))

	contacts, err := h.svc.ExportContacts(c.Request.Context(), status)
	if httpkit.HandleError(c, err) {
		return
	}

	name := "teams"
	if status != "" {
		name = "teams-" + strings.ToLower(status)
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.csv", name, time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Team ID", "Team Name", "Organization", "Members", "Status", "Leader Name", "Leader Email", "Leader Phone"})
	for _, contact := range contacts {
		_ = w.Write([]string{
			contact.ExternalID,
			contact.Name,
			contact.Organization,
			strconv.Itoa(contact.MemberCount),
			contact.VerificationStatus,
			contact.LeaderName,
			contact.LeaderEmail,
			contact.LeaderPhone,
		})
	}
	w.Flush()
}

// ListSkippedRows returns the rejected rows of the most recent import.
// These registrants never entered the team model; the list doubles as a
// custom email audience.
func (h *Handler) ListSkippedRows(c *gin.Context) {
	skipped := h.svc.SkippedRecipients()

	responses := make([]transport.SkippedRowResponse, 0, len(skipped))
	for _, row := range skipped {
		responses = append(responses, transport.SkippedRowResponse{
			RowNumber: row.RowNumber,
			Name:      row.Name,
			Email:     row.Email,
			Phone:     row.Phone,
			Reason:    row.Reason,
		})
	}
	httpkit.OK(c, gin.H{"count": len(responses), "skippedRows": responses})
}

// ListImportJobs returns recent import audit records.
func (h *Handler) ListImportJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	jobs, err := h.svc.ImportJobs(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.ImportJobResponse, 0, len(jobs))
	for _, job := range jobs {
		errs := job.Errors
		if errs == nil {
			errs = []string{}
		}
		responses = append(responses, transport.ImportJobResponse{
			JobID:        job.ID.String(),
			FileName:     job.FileName,
			TotalTeams:   job.TotalTeams,
			NewTeams:     job.NewTeams,
			UpdatedTeams: job.UpdatedTeams,
			RemovedTeams: job.RemovedTeams,
			SkippedRows:  job.SkippedRows,
			Errors:       errs,
			ArchiveKey:   job.ArchiveKey,
			CreatedAt:    job.CreatedAt,
		})
	}
	httpkit.OK(c, gin.H{"count": len(responses), "jobs": responses})
}

func toTeamResponse(team repository.TeamWithMembers) transport.TeamResponse {
	resp := transport.TeamResponse{
		TeamID:             team.ExternalID,
		TeamName:           team.Name,
		Organization:       team.Organization,
		MemberCount:        team.MemberCount,
		VerificationStatus: team.VerificationStatus,
		LastSyncedAt:       team.LastSyncedAt,
		Members:            make([]transport.MemberResponse, 0, len(team.Members)),
	}
	for _, member := range team.Members {
		m := transport.MemberResponse{
			FullName:       member.FullName,
			Email:          member.Email,
			Phone:          member.Phone,
			Degree:         member.Degree,
			GraduationYear: member.GraduationYear,
			IsLeader:       member.IsLeader,
		}
		resp.Members = append(resp.Members, m)
		if member.IsLeader && resp.Leader == nil {
			leader := m
			resp.Leader = &leader
		}
	}
	return resp
}

func toContactResponse(contact repository.TeamContact) transport.ContactResponse {
	return transport.ContactResponse{
		TeamID:             contact.ExternalID,
		TeamName:           contact.Name,
		LeaderName:         contact.LeaderName,
		LeaderEmail:        contact.LeaderEmail,
		LeaderPhone:        contact.LeaderPhone,
		VerificationStatus: contact.VerificationStatus,
	}
}
