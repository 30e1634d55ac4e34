// Package repository implements messaging persistence: recipient queries,
// the append-only communication log, and campaign records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hackdesk_backend/platform/apperr"
)

// Send statuses recorded in the communication log.
const (
	SendStatusSent   = "SENT"
	SendStatusFailed = "FAILED"
)

// Campaign statuses.
const (
	CampaignPending   = "PENDING"
	CampaignRunning   = "RUNNING"
	CampaignCompleted = "COMPLETED"
	CampaignFailed    = "FAILED"
)

// Recipient is one addressable registrant resolved from a target group.
type Recipient struct {
	Email    string
	Name     string
	TeamID   string
	TeamName string
}

// SendLog is one append-only communication log entry.
type SendLog struct {
	RecipientEmail string
	Subject        string
	Content        string
	Status         string
	ErrorMessage   string
}

// EmailStats aggregates the communication log for reporting.
type EmailStats struct {
	Sent   int
	Failed int
	Total  int
}

// RecipientCounts reports audience sizes per target group.
type RecipientCounts struct {
	UnverifiedAll        int
	UnverifiedLeaderOnly int
	VerifiedAll          int
	VerifiedLeaderOnly   int
	All                  int
}

// Campaign is an asynchronous bulk send tracked across worker restarts.
type Campaign struct {
	ID           uuid.UUID
	Subject      string
	HTMLContent  string
	TargetGroup  string
	Status       string
	Sent         int
	Failed       int
	Total        int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Repository is the persistence boundary for the messaging module.
type Repository interface {
	// ListRecipients resolves recipients, filtered by verification status
	// ("" means any) and optionally restricted to team leaders.
	ListRecipients(ctx context.Context, status string, leaderOnly bool) ([]Recipient, error)
	// LogSend appends one communication log entry. Append-only.
	LogSend(ctx context.Context, entry SendLog) error
	// GetEmailStats aggregates the communication log.
	GetEmailStats(ctx context.Context) (EmailStats, error)
	// GetRecipientCounts returns audience sizes for every target group.
	GetRecipientCounts(ctx context.Context) (RecipientCounts, error)

	CreateCampaign(ctx context.Context, c *Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	MarkCampaignRunning(ctx context.Context, id uuid.UUID, total int) error
	FinishCampaign(ctx context.Context, id uuid.UUID, status string, sent, failed int, errMsg string) error
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new messaging repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListRecipients resolves team members into recipients. Members without an
// email address are excluded; they cannot receive mail.
func (r *Repo) ListRecipients(ctx context.Context, status string, leaderOnly bool) ([]Recipient, error) {
	query := `
		SELECT m.email, m.full_name, t.external_id, t.name
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		WHERE m.email <> ''`
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND t.verification_status = $%d", len(args))
	}
	if leaderOnly {
		query += " AND m.is_leader = true"
	}
	query += " ORDER BY t.name ASC, m.is_leader DESC, m.full_name ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.Email, &rec.Name, &rec.TeamID, &rec.TeamName); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// LogSend appends one communication log entry.
func (r *Repo) LogSend(ctx context.Context, entry SendLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO communication_logs (id, recipient_email, subject, content, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), entry.RecipientEmail, entry.Subject, entry.Content, entry.Status, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("log send: %w", err)
	}
	return nil
}

// GetEmailStats aggregates the communication log.
func (r *Repo) GetEmailStats(ctx context.Context) (EmailStats, error) {
	var stats EmailStats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE status = $1),
		       count(*) FILTER (WHERE status = $2),
		       count(*)
		FROM communication_logs`,
		SendStatusSent, SendStatusFailed,
	).Scan(&stats.Sent, &stats.Failed, &stats.Total)
	if err != nil {
		return EmailStats{}, fmt.Errorf("email stats: %w", err)
	}
	return stats, nil
}

// GetRecipientCounts returns audience sizes for every target group in one
// aggregate query over addressable members.
func (r *Repo) GetRecipientCounts(ctx context.Context) (RecipientCounts, error) {
	var counts RecipientCounts
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE t.verification_status = 'PENDING'),
		       count(*) FILTER (WHERE t.verification_status = 'PENDING' AND m.is_leader),
		       count(*) FILTER (WHERE t.verification_status = 'VERIFIED'),
		       count(*) FILTER (WHERE t.verification_status = 'VERIFIED' AND m.is_leader),
		       count(*)
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		WHERE m.email <> ''`,
	).Scan(&counts.UnverifiedAll, &counts.UnverifiedLeaderOnly, &counts.VerifiedAll, &counts.VerifiedLeaderOnly, &counts.All)
	if err != nil {
		return RecipientCounts{}, fmt.Errorf("recipient counts: %w", err)
	}
	return counts, nil
}

// CreateCampaign persists a new campaign in PENDING state.
func (r *Repo) CreateCampaign(ctx context.Context, c *Campaign) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO campaigns (id, subject, html_content, target_group, status, sent, failed, total, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, '', now())`,
		c.ID, c.Subject, c.HTMLContent, c.TargetGroup, CampaignPending,
	)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// GetCampaign loads a campaign by id.
func (r *Repo) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var c Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, subject, html_content, target_group, status, sent, failed, total, error_message, created_at, started_at, finished_at
		FROM campaigns WHERE id = $1`, id,
	).Scan(&c.ID, &c.Subject, &c.HTMLContent, &c.TargetGroup, &c.Status, &c.Sent, &c.Failed, &c.Total, &c.ErrorMessage, &c.CreatedAt, &c.StartedAt, &c.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return &c, nil
}

// MarkCampaignRunning transitions a campaign to RUNNING with its resolved
// audience size.
func (r *Repo) MarkCampaignRunning(ctx context.Context, id uuid.UUID, total int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $2, total = $3, started_at = now() WHERE id = $1`,
		id, CampaignRunning, total,
	)
	if err != nil {
		return fmt.Errorf("mark campaign running: %w", err)
	}
	return nil
}

// FinishCampaign records the terminal state of a campaign.
func (r *Repo) FinishCampaign(ctx context.Context, id uuid.UUID, status string, sent, failed int, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $2, sent = $3, failed = $4, error_message = $5, finished_at = now() WHERE id = $1`,
		id, status, sent, failed, errMsg,
	)
	if err != nil {
		return fmt.Errorf("finish campaign: %w", err)
	}
	return nil
}
