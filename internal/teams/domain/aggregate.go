// Package domain holds the pure registration-import logic: row
// classification, team aggregation, and the derived team/member shapes
// that the reconciler persists.
package domain

import (
	"strings"

	"hackdesk_backend/platform/phone"
)

// Verification status values for a team.
const (
	StatusPending  = "PENDING"
	StatusVerified = "VERIFIED"
	StatusRejected = "REJECTED"
)

// Rejection reasons for skipped rows.
const (
	ReasonMissingTeamName = "Missing Team Name"
	ReasonMissingTeamID   = "Missing Team ID"
)

const leaderRole = "Team Leader"

// Row is one flat registration row from the platform export.
type Row struct {
	TeamID         string
	TeamName       string
	Role           string
	Name           string
	Email          string
	Phone          string
	Organization   string
	Degree         string
	GraduationYear string
	RegStatus      string
}

// Member is an accepted, normalized registrant belonging to a team.
type Member struct {
	FullName       string
	Email          string
	Phone          string
	Degree         string
	GraduationYear string
	IsLeader       bool
}

// TeamAggregate is one team assembled from its accepted rows.
type TeamAggregate struct {
	ExternalID   string
	Name         string
	Organization string
	// Status is recomputed from every row of the team, so it reflects the
	// registration-completeness flag of whichever row appeared last.
	Status  string
	Members []Member
	// Leader is nil when no row carried the leader role. Downstream
	// consumers must treat that as a valid state.
	Leader *Member
}

// SkippedRow is a registration row rejected before team assignment.
type SkippedRow struct {
	RowNumber int
	Name      string
	Email     string
	Phone     string
	Reason    string
}

// Aggregate classifies rows in input order and groups the accepted ones
// into team aggregates keyed by external team identifier. Aggregates are
// returned in first-appearance order. Skipped rows carry 1-indexed row
// numbers offset by headerOffset (the number of header lines preceding
// the first data row).
func Aggregate(rows []Row, headerOffset int, countryCode string) ([]TeamAggregate, []SkippedRow) {
	aggregates := make([]TeamAggregate, 0, len(rows))
	index := make(map[string]int)
	var skipped []SkippedRow

	for i, row := range rows {
		rowNumber := i + 1 + headerOffset

		teamName := strings.TrimSpace(row.TeamName)
		teamID := strings.TrimSpace(row.TeamID)

		if teamName == "" {
			skipped = append(skipped, rejectRow(row, rowNumber, ReasonMissingTeamName, countryCode))
			continue
		}
		if teamID == "" {
			skipped = append(skipped, rejectRow(row, rowNumber, ReasonMissingTeamID, countryCode))
			continue
		}

		member := Member{
			FullName:       strings.TrimSpace(row.Name),
			Email:          strings.ToLower(strings.TrimSpace(row.Email)),
			Phone:          phone.NormalizeWithCountryCode(row.Phone, countryCode),
			Degree:         strings.TrimSpace(row.Degree),
			GraduationYear: strings.TrimSpace(row.GraduationYear),
			IsLeader:       strings.EqualFold(strings.TrimSpace(row.Role), leaderRole),
		}

		pos, seen := index[teamID]
		if !seen {
			pos = len(aggregates)
			index[teamID] = pos
			aggregates = append(aggregates, TeamAggregate{
				ExternalID:   teamID,
				Name:         teamName,
				Organization: strings.TrimSpace(row.Organization),
			})
		}

		agg := &aggregates[pos]
		agg.Members = append(agg.Members, member)
		// Last row wins: a team's stored status mirrors the completeness
		// flag of the most recently processed row for that identifier.
		agg.Status = statusFromRegStatus(row.RegStatus)
		if member.IsLeader {
			// Duplicate leader rows: last one wins, earlier members are
			// demoted so the team keeps at most one leader.
			for i := range agg.Members[:len(agg.Members)-1] {
				agg.Members[i].IsLeader = false
			}
			leader := member
			agg.Leader = &leader
		}
	}

	return aggregates, skipped
}

func rejectRow(row Row, rowNumber int, reason, countryCode string) SkippedRow {
	return SkippedRow{
		RowNumber: rowNumber,
		Name:      strings.TrimSpace(row.Name),
		Email:     strings.ToLower(strings.TrimSpace(row.Email)),
		Phone:     phone.NormalizeWithCountryCode(row.Phone, countryCode),
		Reason:    reason,
	}
}

func statusFromRegStatus(regStatus string) string {
	if strings.EqualFold(strings.TrimSpace(regStatus), "complete") {
		return StatusVerified
	}
	return StatusPending
}
