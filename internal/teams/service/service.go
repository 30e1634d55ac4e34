// Package service implements the teams use cases: CSV import with
// reconciliation, verification, listings, and export.
package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackdesk_backend/internal/events"
	"hackdesk_backend/internal/storage"
	"hackdesk_backend/internal/teams/domain"
	"hackdesk_backend/internal/teams/repository"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/logger"
)

// ImportResult carries the outcome of one upload.
type ImportResult struct {
	JobID        uuid.UUID
	TotalTeams   int
	NewTeams     int
	UpdatedTeams int
	RemovedTeams int
	Skipped      []domain.SkippedRow
	Errors       []string
}

// Service orchestrates the teams module.
type Service struct {
	repo          repository.Repository
	bus           events.Bus
	log           *logger.Logger
	countryCode   string
	headerOffset  int
	archiver      storage.Archiver
	archiveBucket string

	// Skipped rows from the most recent import. Held transiently for the
	// current session so they can be used as a custom email audience;
	// replaced wholesale by the next import.
	mu          sync.Mutex
	lastSkipped []domain.SkippedRow
}

// New creates the teams service.
func New(repo repository.Repository, bus events.Bus, cfg config.ImportConfig, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		bus:          bus,
		log:          log,
		countryCode:  cfg.GetDefaultCountryCode(),
		headerOffset: cfg.GetCSVHeaderOffset(),
	}
}

// SetArchiver enables raw-CSV archiving for import jobs.
func (s *Service) SetArchiver(archiver storage.Archiver, bucket string) {
	s.archiver = archiver
	s.archiveBucket = bucket
}

// Import runs the full pipeline for one uploaded CSV: parse, aggregate,
// reconcile against persisted state, record the audit job, archive the
// raw file. Reconciliation is not atomic across the batch: per-team
// failures are collected and the rest of the batch proceeds, so re-running
// the same upload converges (matching is by stable external identifier).
func (s *Service) Import(ctx context.Context, fileName string, data []byte, replaceAll bool) (ImportResult, error) {
	rows, err := readRegistrationCSV(bytes.NewReader(data))
	if err != nil {
		return ImportResult{}, apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
	}

	aggregates, skipped := domain.Aggregate(rows, s.headerOffset, s.countryCode)

	result := ImportResult{
		JobID:      uuid.New(),
		TotalTeams: len(aggregates),
		Skipped:    skipped,
	}

	present := make(map[string]struct{}, len(aggregates))
	for _, agg := range aggregates {
		present[agg.ExternalID] = struct{}{}
	}

	if replaceAll {
		refs, err := s.repo.ListTeamRefs(ctx)
		if err != nil {
			return ImportResult{}, err
		}
		for _, ref := range refs {
			if _, ok := present[ref.ExternalID]; ok {
				continue
			}
			if err := s.repo.DeleteTeam(ctx, ref.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("remove team %s: %v", ref.ExternalID, err))
				continue
			}
			result.RemovedTeams++
		}
	}

	syncedAt := time.Now().UTC()
	for _, agg := range aggregates {
		created, err := s.repo.UpsertTeam(ctx, agg, syncedAt)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("team %s: %v", agg.ExternalID, err))
			continue
		}
		if created {
			result.NewTeams++
		} else {
			result.UpdatedTeams++
		}
	}

	job := repository.ImportJob{
		ID:           result.JobID,
		FileName:     fileName,
		TotalTeams:   result.TotalTeams,
		NewTeams:     result.NewTeams,
		UpdatedTeams: result.UpdatedTeams,
		RemovedTeams: result.RemovedTeams,
		SkippedRows:  len(skipped),
		Errors:       result.Errors,
	}
	if err := s.repo.CreateImportJob(ctx, job); err != nil {
		s.log.DatabaseError("create import job", err)
		result.Errors = append(result.Errors, fmt.Sprintf("record import job: %v", err))
	}

	s.archiveUpload(ctx, result.JobID, data)

	s.mu.Lock()
	s.lastSkipped = skipped
	s.mu.Unlock()

	s.log.ImportCompleted(result.JobID.String(), result.NewTeams, result.UpdatedTeams, result.RemovedTeams, len(skipped), len(result.Errors))

	if s.bus != nil {
		s.bus.Publish(ctx, events.TeamsImported{
			BaseEvent:    events.NewBaseEvent(),
			JobID:        result.JobID,
			NewTeams:     result.NewTeams,
			UpdatedTeams: result.UpdatedTeams,
			RemovedTeams: result.RemovedTeams,
			FailedTeams:  len(result.Errors),
		})
	}

	return result, nil
}

func (s *Service) archiveUpload(ctx context.Context, jobID uuid.UUID, data []byte) {
	if s.archiver == nil {
		return
	}
	key := fmt.Sprintf("imports/%s.csv", jobID)
	if err := s.archiver.Put(ctx, s.archiveBucket, key, data, "text/csv"); err != nil {
		s.log.Warn("failed to archive import csv", "jobId", jobID, "error", err)
		return
	}
	if err := s.repo.SetImportJobArchiveKey(ctx, jobID, key); err != nil {
		s.log.DatabaseError("set import archive key", err)
	}
}

// SkippedRecipients returns the skipped rows of the most recent import,
// for use as a custom email audience.
func (s *Service) SkippedRecipients() []domain.SkippedRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SkippedRow(nil), s.lastSkipped...)
}

// Stats returns team counts by verification status.
func (s *Service) Stats(ctx context.Context) (repository.Stats, error) {
	return s.repo.GetStats(ctx)
}

// ListVerified returns verified teams with their members.
func (s *Service) ListVerified(ctx context.Context) ([]repository.TeamWithMembers, error) {
	return s.repo.ListByStatus(ctx, domain.StatusVerified)
}

// ListUnverified returns the leader-contact view of pending teams.
func (s *Service) ListUnverified(ctx context.Context) ([]repository.TeamContact, error) {
	return s.repo.ListContactsByStatus(ctx, domain.StatusPending)
}

// Verify promotes a pending team to VERIFIED.
func (s *Service) Verify(ctx context.Context, externalID string) error {
	return s.repo.MarkVerified(ctx, externalID)
}

// ExportContacts returns the contact view filtered by status ("" = all)
// for the CSV export endpoint.
func (s *Service) ExportContacts(ctx context.Context, status string) ([]repository.TeamContact, error) {
	switch status {
	case "", domain.StatusPending, domain.StatusVerified, domain.StatusRejected:
	default:
		return nil, apperr.Validation("status must be PENDING, VERIFIED or REJECTED")
	}
	return s.repo.ListContactsByStatus(ctx, status)
}

// ImportJobs lists recent import audit records.
func (s *Service) ImportJobs(ctx context.Context, limit int) ([]repository.ImportJob, error) {
	return s.repo.ListImportJobs(ctx, limit)
}
