// Package repository implements teams persistence with PostgreSQL.
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

const teamNotFoundMessage = "team not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new teams repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListTeamRefs returns the surrogate and external identifiers of every team.
func (r *Repo) ListTeamRefs(ctx context.Context) ([]TeamRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, external_id FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("list team refs: %w", err)
	}
	defer rows.Close()

	var refs []TeamRef
	for rows.Next() {
		var ref TeamRef
		if err := rows.Scan(&ref.ID, &ref.ExternalID); err != nil {
			return nil, fmt.Errorf("scan team ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteTeam removes a team row. Members and the call log row are removed
// by ON DELETE CASCADE.
func (r *Repo) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(teamNotFoundMessage)
	}
	return nil
}

// UpsertTeam reconciles one aggregate inside a transaction. An existing
// team (matched by external identifier) is updated in place so its
// surrogate key, and therefore its call log, survives the re-import. The
// member set is replaced wholesale either way.
func (r *Repo) UpsertTeam(ctx context.Context, agg domain.TeamAggregate, syncedAt time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin upsert team: %w", err)
	}
	defer tx.Rollback(ctx)

	var teamID uuid.UUID
	created := false

	err = tx.QueryRow(ctx, `SELECT id FROM teams WHERE external_id = $1`, agg.ExternalID).Scan(&teamID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		teamID = uuid.New()
		created = true
		_, err = tx.Exec(ctx, `
			INSERT INTO teams (id, external_id, name, organization, member_count, verification_status, last_synced_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
			teamID, agg.ExternalID, agg.Name, agg.Organization, len(agg.Members), agg.Status, syncedAt,
		)
		if err != nil {
			return false, fmt.Errorf("insert team %s: %w", agg.ExternalID, err)
		}
	case err != nil:
		return false, fmt.Errorf("find team %s: %w", agg.ExternalID, err)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE teams
			SET name = $2, organization = $3, member_count = $4, verification_status = $5, last_synced_at = $6, updated_at = now()
			WHERE id = $1`,
			teamID, agg.Name, agg.Organization, len(agg.Members), agg.Status, syncedAt,
		)
		if err != nil {
			return false, fmt.Errorf("update team %s: %w", agg.ExternalID, err)
		}
	}

	// No member-level diffing: delete-all then insert-all.
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return false, fmt.Errorf("clear members %s: %w", agg.ExternalID, err)
	}
	for _, member := range agg.Members {
		_, err := tx.Exec(ctx, `
			INSERT INTO team_members (id, team_id, full_name, email, phone, degree, graduation_year, is_leader)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), teamID, member.FullName, member.Email, member.Phone, member.Degree, member.GraduationYear, member.IsLeader,
		)
		if err != nil {
			return false, fmt.Errorf("insert member %s for %s: %w", member.Email, agg.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit upsert team %s: %w", agg.ExternalID, err)
	}
	return created, nil
}

// GetStats returns team counts by verification status.
func (r *Repo) GetStats(ctx context.Context) (Stats, error) {
	rows, err := r.pool.Query(ctx, `SELECT verification_status, count(*) FROM teams GROUP BY verification_status`)
	if err != nil {
		return Stats{}, fmt.Errorf("team stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan team stats: %w", err)
		}
		stats.Total += count
		switch status {
		case domain.StatusVerified:
			stats.Verified = count
		case domain.StatusPending:
			stats.Pending = count
		case domain.StatusRejected:
			stats.Rejected = count
		}
	}
	return stats, rows.Err()
}

// ListByStatus returns teams (with members) filtered by verification
// status; an empty status returns all teams.
func (r *Repo) ListByStatus(ctx context.Context, status string) ([]TeamWithMembers, error) {
	query := `
		SELECT id, external_id, name, organization, member_count, verification_status, last_synced_at, created_at, updated_at
		FROM teams`
	args := []any{}
	if status != "" {
		query += ` WHERE verification_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []TeamWithMembers
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.ExternalID, &t.Name, &t.Organization, &t.MemberCount, &t.VerificationStatus, &t.LastSyncedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		byID[t.ID] = len(teams)
		teams = append(teams, TeamWithMembers{Team: t})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}

	memberRows, err := r.pool.Query(ctx, `
		SELECT id, team_id, full_name, email, phone, degree, graduation_year, is_leader
		FROM team_members
		WHERE team_id = ANY($1)
		ORDER BY is_leader DESC, full_name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var m TeamMember
		if err := memberRows.Scan(&m.ID, &m.TeamID, &m.FullName, &m.Email, &m.Phone, &m.Degree, &m.GraduationYear, &m.IsLeader); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		if pos, ok := byID[m.TeamID]; ok {
			teams[pos].Members = append(teams[pos].Members, m)
		}
	}
	return teams, memberRows.Err()
}

// ListContactsByStatus returns the leader-contact view of teams filtered
// by verification status; an empty status returns all teams.
func (r *Repo) ListContactsByStatus(ctx context.Context, status string) ([]TeamContact, error) {
	query := `
		SELECT t.external_id, t.name, t.organization, t.member_count, t.verification_status,
		       coalesce(l.full_name, ''), coalesce(l.email, ''), coalesce(l.phone, '')
		FROM teams t
		LEFT JOIN team_members l ON l.team_id = t.id AND l.is_leader = true`
	args := []any{}
	if status != "" {
		query += ` WHERE t.verification_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY t.name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list team contacts: %w", err)
	}
	defer rows.Close()

	var contacts []TeamContact
	for rows.Next() {
		var c TeamContact
		if err := rows.Scan(&c.ExternalID, &c.Name, &c.Organization, &c.MemberCount, &c.VerificationStatus, &c.LeaderName, &c.LeaderEmail, &c.LeaderPhone); err != nil {
			return nil, fmt.Errorf("scan team contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// MarkVerified promotes a team to VERIFIED. The transition is one-way
// from PENDING; an already-verified team is a no-op, a rejected team
// cannot be promoted.
func (r *Repo) MarkVerified(ctx context.Context, externalID string) error {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT verification_status FROM teams WHERE external_id = $1`, externalID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(teamNotFoundMessage)
	}
	if err != nil {
		return fmt.Errorf("find team for verify: %w", err)
	}

	switch status {
	case domain.StatusVerified:
		return nil
	case domain.StatusRejected:
		return apperr.Validation("rejected teams cannot be verified")
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE teams SET verification_status = $2, updated_at = now() WHERE external_id = $1`,
		externalID, domain.StatusVerified,
	)
	if err != nil {
		return fmt.Errorf("mark team verified: %w", err)
	}
	return nil
}

// CreateImportJob persists the audit record for one upload.
func (r *Repo) CreateImportJob(ctx context.Context, job ImportJob) error {
	if job.Errors == nil {
		job.Errors = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO import_jobs (id, file_name, total_teams, new_teams, updated_teams, removed_teams, skipped_rows, errors, archive_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		job.ID, job.FileName, job.TotalTeams, job.NewTeams, job.UpdatedTeams, job.RemovedTeams, job.SkippedRows, job.Errors, job.ArchiveKey,
	)
	if err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

// SetImportJobArchiveKey records where the raw CSV was archived.
func (r *Repo) SetImportJobArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE import_jobs SET archive_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set import job archive key: %w", err)
	}
	return nil
}

// ListImportJobs returns the most recent import jobs.
func (r *Repo) ListImportJobs(ctx context.Context, limit int) ([]ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, file_name, total_teams, new_teams, updated_teams, removed_teams, skipped_rows, errors, archive_key, created_at
		FROM import_jobs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ImportJob
	for rows.Next() {
		var job ImportJob
		if err := rows.Scan(&job.ID, &job.FileName, &job.TotalTeams, &job.NewTeams, &job.UpdatedTeams, &job.RemovedTeams, &job.SkippedRows, &job.Errors, &job.ArchiveKey, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
