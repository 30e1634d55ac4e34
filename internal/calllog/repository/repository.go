// Package repository implements call-log persistence with PostgreSQL.
//
// The call lock is a keyed compare-and-swap record: every mutating
// operation is a single conditional statement against the team's row, so
// two concurrent acquires serialize on the store, never in process memory.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hackdesk_backend/internal/teams/domain"
	"hackdesk_backend/platform/apperr"
)

// Call status values. BEING_CALLED is the only transient state; a row with
// a non-empty locked_by is always BEING_CALLED.
const (
	StatusNotCalled   = "NOT_CALLED"
	StatusBeingCalled = "BEING_CALLED"
	StatusWillVerify  = "CALLED_WILL_VERIFY"
	StatusNotPicked   = "CALLED_NOT_PICKED"
	StatusRejected    = "CALLED_REJECTED"
)

// SheetEntry is one row of the call sheet: a pending team, its leader
// contact, and its current call state.
type SheetEntry struct {
	TeamID       string
	TeamName     string
	Organization string
	LeaderName   string
	LeaderEmail  string
	LeaderPhone  string
	Status       string
	LockedBy     string
	LockedAt     *time.Time
	CalledBy     string
	Notes        string
	LastCalledAt *time.Time
}

// Repository is the persistence boundary for call coordination.
type Repository interface {
	// ResolveTeam maps an external team identifier to the surrogate key.
	ResolveTeam(ctx context.Context, externalID string) (uuid.UUID, error)
	// SweepStale resets every lock older than the cutoff: lock fields
	// cleared, status forced back to NOT_CALLED.
	SweepStale(ctx context.Context, cutoff time.Time) (int, error)
	// TryAcquire claims the team's lock if it is free, already held by the
	// same caller, or stale. Returns the current holder on conflict.
	TryAcquire(ctx context.Context, teamID uuid.UUID, caller string, now, cutoff time.Time) (bool, string, error)
	// RecordOutcome unconditionally stores a call outcome and clears the
	// lock. Not guarded by lock ownership.
	RecordOutcome(ctx context.Context, teamID uuid.UUID, outcome, caller, notes string, now time.Time) error
	// Release clears the lock if held by caller; the status reverts to the
	// last recorded outcome, or NOT_CALLED when none exists.
	Release(ctx context.Context, teamID uuid.UUID, caller string) (bool, error)
	// ListSheet returns the call sheet over the PENDING population.
	ListSheet(ctx context.Context) ([]SheetEntry, error)
	// StatusCounts returns call-status counts over the PENDING population.
	StatusCounts(ctx context.Context) (map[string]int, error)
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new call-log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ResolveTeam maps an external team identifier to the surrogate key.
func (r *Repo) ResolveTeam(ctx context.Context, externalID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM teams WHERE external_id = $1`, externalID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("team not found")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve team %s: %w", externalID, err)
	}
	return id, nil
}

// SweepStale resets abandoned locks so a crashed client or closed tab can
// never block a team permanently.
func (r *Repo) SweepStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_logs
		SET locked_by = '', locked_at = NULL, status = $2, updated_at = now()
		WHERE locked_by <> '' AND locked_at < $1`,
		cutoff, StatusNotCalled,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep stale locks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// TryAcquire claims the lock with a single conditional upsert. The WHERE
// clause makes the check-and-set atomic: the update applies only when the
// lock is free, re-entrant for the same caller, or stale.
func (r *Repo) TryAcquire(ctx context.Context, teamID uuid.UUID, caller string, now, cutoff time.Time) (bool, string, error) {
	var lockedBy string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (team_id, status, locked_by, locked_at, called_by, notes, last_outcome, last_called_at, updated_at)
		VALUES ($1, $2, $3, $4, '', '', '', NULL, now())
		ON CONFLICT (team_id) DO UPDATE
		SET status = $2, locked_by = $3, locked_at = $4, updated_at = now()
		WHERE call_logs.locked_by = '' OR call_logs.locked_by = $3 OR call_logs.locked_at < $5
		RETURNING locked_by`,
		teamID, StatusBeingCalled, caller, now, cutoff,
	).Scan(&lockedBy)

	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict path: the conditional update did not apply, someone
		// else holds a fresh lock.
		holder, holderErr := r.currentHolder(ctx, teamID)
		if holderErr != nil {
			return false, "", holderErr
		}
		return false, holder, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("acquire call lock: %w", err)
	}
	return true, lockedBy, nil
}

func (r *Repo) currentHolder(ctx context.Context, teamID uuid.UUID) (string, error) {
	var holder string
	err := r.pool.QueryRow(ctx, `SELECT locked_by FROM call_logs WHERE team_id = $1`, teamID).Scan(&holder)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lock holder: %w", err)
	}
	return holder, nil
}

// RecordOutcome stores a terminal call status. Deliberately not guarded by
// lock ownership: any caller can record an outcome for a team.
func (r *Repo) RecordOutcome(ctx context.Context, teamID uuid.UUID, outcome, caller, notes string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO call_logs (team_id, status, locked_by, locked_at, called_by, notes, last_outcome, last_called_at, updated_at)
		VALUES ($1, $2, '', NULL, $3, $4, $2, $5, now())
		ON CONFLICT (team_id) DO UPDATE
		SET status = $2, locked_by = '', locked_at = NULL, called_by = $3, notes = $4, last_outcome = $2, last_called_at = $5, updated_at = now()`,
		teamID, outcome, caller, notes, now,
	)
	if err != nil {
		return fmt.Errorf("record call outcome: %w", err)
	}
	return nil
}

// Release clears the lock when held by caller. The row reverts to its last
// recorded outcome, or NOT_CALLED when the team was never completed.
func (r *Repo) Release(ctx context.Context, teamID uuid.UUID, caller string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_logs
		SET locked_by = '', locked_at = NULL, updated_at = now(),
		    status = CASE WHEN called_by <> '' THEN last_outcome ELSE $3 END
		WHERE team_id = $1 AND locked_by = $2`,
		teamID, caller, StatusNotCalled,
	)
	if err != nil {
		return false, fmt.Errorf("release call lock: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSheet returns pending teams with leader contact and call state.
// Teams without a call log row appear as NOT_CALLED.
func (r *Repo) ListSheet(ctx context.Context) ([]SheetEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.external_id, t.name, t.organization,
		       coalesce(l.full_name, ''), coalesce(l.email, ''), coalesce(l.phone, ''),
		       coalesce(cl.status, $1), coalesce(cl.locked_by, ''), cl.locked_at,
		       coalesce(cl.called_by, ''), coalesce(cl.notes, ''), cl.last_called_at
		FROM teams t
		LEFT JOIN team_members l ON l.team_id = t.id AND l.is_leader = true
		LEFT JOIN call_logs cl ON cl.team_id = t.id
		WHERE t.verification_status = $2
		ORDER BY t.name ASC`,
		StatusNotCalled, domain.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list call sheet: %w", err)
	}
	defer rows.Close()

	var entries []SheetEntry
	for rows.Next() {
		var e SheetEntry
		if err := rows.Scan(&e.TeamID, &e.TeamName, &e.Organization, &e.LeaderName, &e.LeaderEmail, &e.LeaderPhone,
			&e.Status, &e.LockedBy, &e.LockedAt, &e.CalledBy, &e.Notes, &e.LastCalledAt); err != nil {
			return nil, fmt.Errorf("scan call sheet entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatusCounts counts call statuses across pending teams only; a team
// promoted to VERIFIED drops out of call statistics regardless of history.
func (r *Repo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT coalesce(cl.status, $1), count(*)
		FROM teams t
		LEFT JOIN call_logs cl ON cl.team_id = t.id
		WHERE t.verification_status = $2
		GROUP BY 1`,
		StatusNotCalled, domain.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("call status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan call status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
