// Package service implements call coordination over the pending-team
// population: lock acquisition, outcome recording, release, and the call
// sheet used by callers working the phone.
package service

import (
	"context"
	"fmt"
	"time"

	"hackdesk_backend/internal/calllog/repository"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/logger"
)

// staleLockTimeout is how long a lock may sit untouched before any caller
// may take it over. Covers crashed browsers and abandoned tabs.
const staleLockTimeout = 5 * time.Minute

// Service coordinates phone calls across multiple concurrent callers.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates the call coordination service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func validOutcome(status string) bool {
	switch status {
	case repository.StatusWillVerify, repository.StatusNotPicked, repository.StatusRejected:
		return true
	}
	return false
}

// sweep resets stale locks. Runs before any read of lock state so callers
// never see a lock nobody is behind.
func (s *Service) sweep(ctx context.Context) {
	cutoff := s.now().Add(-staleLockTimeout)
	n, err := s.repo.SweepStale(ctx, cutoff)
	if err != nil {
		s.log.Error("stale lock sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("reset stale call locks", "count", n)
	}
}

// Acquire claims the call lock on a team for the named caller. Re-entrant
// for the same caller; stale locks are taken over. Returns Conflict naming
// the current holder when another caller holds a fresh lock.
func (s *Service) Acquire(ctx context.Context, externalTeamID, caller string) error {
	s.sweep(ctx)

	teamID, err := s.repo.ResolveTeam(ctx, externalTeamID)
	if err != nil {
		return err
	}

	now := s.now()
	acquired, holder, err := s.repo.TryAcquire(ctx, teamID, caller, now, now.Add(-staleLockTimeout))
	if err != nil {
		return err
	}
	if !acquired {
		return apperr.Conflict(fmt.Sprintf("%s is already calling this team", holder)).
			WithDetails(map[string]string{"lockedBy": holder})
	}

	s.log.Info("call lock acquired", "teamId", externalTeamID, "caller", caller)
	return nil
}

// Complete records a call outcome for a team and clears any lock. Not
// guarded by lock ownership: outcomes are never lost to lock races.
func (s *Service) Complete(ctx context.Context, externalTeamID, status, caller, notes string) error {
	if !validOutcome(status) {
		return apperr.Validation(fmt.Sprintf("invalid call status %q", status))
	}

	teamID, err := s.repo.ResolveTeam(ctx, externalTeamID)
	if err != nil {
		return err
	}
	if err := s.repo.RecordOutcome(ctx, teamID, status, caller, notes, s.now()); err != nil {
		return err
	}

	s.log.Info("call outcome recorded", "teamId", externalTeamID, "status", status, "caller", caller)
	return nil
}

// Release gives up the lock without recording an outcome. Only the holder
// may release; the team reverts to its last recorded outcome.
func (s *Service) Release(ctx context.Context, externalTeamID, caller string) error {
	teamID, err := s.repo.ResolveTeam(ctx, externalTeamID)
	if err != nil {
		return err
	}

	released, err := s.repo.Release(ctx, teamID, caller)
	if err != nil {
		return err
	}
	if !released {
		return apperr.Conflict("lock is not held by this caller")
	}

	s.log.Info("call lock released", "teamId", externalTeamID, "caller", caller)
	return nil
}

// Sheet returns the call sheet: every PENDING team with leader contact and
// current call state, after sweeping stale locks.
func (s *Service) Sheet(ctx context.Context) ([]repository.SheetEntry, error) {
	s.sweep(ctx)
	return s.repo.ListSheet(ctx)
}

// Stats returns call-status counts over the PENDING population.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	s.sweep(ctx)
	return s.repo.StatusCounts(ctx)
}
