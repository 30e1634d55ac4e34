// Package transport defines the request/response DTOs for the teams module.
package transport

import "time"

// UploadStats summarizes one CSV import.
type UploadStats struct {
	TotalTeams   int `json:"totalTeams"`
	NewTeams     int `json:"newTeams"`
	UpdatedTeams int `json:"updatedTeams"`
	RemovedTeams int `json:"removedTeams"`
	SkippedRows  int `json:"skippedRows"`
	Errors       int `json:"errors"`
}

// SkippedRowResponse is one rejected registration row.
type SkippedRowResponse struct {
	RowNumber int    `json:"rowNumber"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason"`
}

// UploadResponse is returned by the CSV upload endpoint. Partial failures
// still produce a structured result, never an opaque 500.
type UploadResponse struct {
	Success     bool                 `json:"success"`
	JobID       string               `json:"jobId"`
	Stats       UploadStats          `json:"stats"`
	SkippedRows []SkippedRowResponse `json:"skippedRows"`
	Errors      []string             `json:"errors"`
}

// TeamCounts are team totals by verification status.
type TeamCounts struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// StatsResponse wraps the team counts.
type StatsResponse struct {
	Stats TeamCounts `json:"stats"`
}

// MemberResponse is one team member.
type MemberResponse struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Degree         string `json:"degree,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`
	IsLeader       bool   `json:"isLeader"`
}

// TeamResponse is a full team with leader and members.
type TeamResponse struct {
	TeamID             string           `json:"teamId"`
	TeamName           string           `json:"teamName"`
	Organization       string           `json:"organization"`
	MemberCount        int              `json:"memberCount"`
	VerificationStatus string           `json:"verificationStatus"`
	LastSyncedAt       time.Time        `json:"lastSyncedAt"`
	Leader             *MemberResponse  `json:"leader,omitempty"`
	Members            []MemberResponse `json:"members"`
}

// TeamListResponse wraps a team listing.
type TeamListResponse struct {
	Count int            `json:"count"`
	Teams []TeamResponse `json:"teams"`
}

// ContactResponse is the flattened leader-contact view of a team. Leader
// fields are empty strings when no member carries the leader role.
type ContactResponse struct {
	TeamID             string `json:"teamId"`
	TeamName           string `json:"teamName"`
	LeaderName         string `json:"leaderName"`
	LeaderEmail        string `json:"leaderEmail"`
	LeaderPhone        string `json:"leaderPhone"`
	VerificationStatus string `json:"verificationStatus"`
}

// ContactListResponse wraps a contact listing.
type ContactListResponse struct {
	Count int               `json:"count"`
	Teams []ContactResponse `json:"teams"`
}

// ImportJobResponse is one import audit record.
type ImportJobResponse struct {
	JobID        string    `json:"jobId"`
	FileName     string    `json:"fileName"`
	TotalTeams   int       `json:"totalTeams"`
	NewTeams     int       `json:"newTeams"`
	UpdatedTeams int       `json:"updatedTeams"`
	RemovedTeams int       `json:"removedTeams"`
	SkippedRows  int       `json:"skippedRows"`
	Errors       []string  `json:"errors"`
	ArchiveKey   string    `json:"archiveKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
