package repository

import (
	"context"
	"time"

	"hackdesk_backend/internal/teams/domain"

	"github.com/google/uuid"
)

// Team is the persisted team record. The internal ID is a surrogate key
// that stays stable across re-imports; matching is by ExternalID.
type Team struct {
	ID                 uuid.UUID
	ExternalID         string
	Name               string
	Organization       string
	MemberCount        int
	VerificationStatus string
	LastSyncedAt       time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TeamMember is a persisted member row. Members carry no identity across
// imports; the whole set is replaced on every re-import.
type TeamMember struct {
	ID             uuid.UUID
	TeamID         uuid.UUID
	FullName       string
	Email          string
	Phone          string
	Degree         string
	GraduationYear string
	IsLeader       bool
}

// TeamWithMembers bundles a team with its member rows.
type TeamWithMembers struct {
	Team
	Members []TeamMember
}

// TeamContact is the flattened leader-contact view used by listings and
// the call sheet. Leader fields are empty when the team has no leader.
type TeamContact struct {
	ExternalID         string
	Name               string
	Organization       string
	MemberCount        int
	VerificationStatus string
	LeaderName         string
	LeaderEmail        string
	LeaderPhone        string
}

// TeamRef pairs a team's surrogate and external identifiers.
type TeamRef struct {
	ID         uuid.UUID
	ExternalID string
}

// Stats are team counts by verification status.
type Stats struct {
	Total    int
	Verified int
	Pending  int
	Rejected int
}

// ImportJob is the audit record for one CSV upload.
type ImportJob struct {
	ID           uuid.UUID
	FileName     string
	TotalTeams   int
	NewTeams     int
	UpdatedTeams int
	RemovedTeams int
	SkippedRows  int
	Errors       []string
	ArchiveKey   string
	CreatedAt    time.Time
}

// Repository is the persistence boundary for the teams module.
type Repository interface {
	// ListTeamRefs returns the identifiers of every persisted team.
	ListTeamRefs(ctx context.Context) ([]TeamRef, error)
	// DeleteTeam removes a team; members and call log cascade.
	DeleteTeam(ctx context.Context, id uuid.UUID) error
	// UpsertTeam reconciles one aggregate: update-in-place by external
	// identifier with wholesale member replacement, or insert when absent.
	// Returns true when a new team row was created.
	UpsertTeam(ctx context.Context, agg domain.TeamAggregate, syncedAt time.Time) (bool, error)

	GetStats(ctx context.Context) (Stats, error)
	ListByStatus(ctx context.Context, status string) ([]TeamWithMembers, error)
	ListContactsByStatus(ctx context.Context, status string) ([]TeamContact, error)
	MarkVerified(ctx context.Context, externalID string) error

	CreateImportJob(ctx context.Context, job ImportJob) error
	SetImportJobArchiveKey(ctx context.Context, id uuid.UUID, key string) error
	ListImportJobs(ctx context.Context, limit int) ([]ImportJob, error)
}
