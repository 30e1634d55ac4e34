// Package transport defines request/response DTOs for the call-log API.
package transport

import "time"

// LockRequest identifies the caller claiming a team's call lock.
type LockRequest struct {
	CallerName string `json:"callerName" validate:"required,min=1,max=100"`
}

// StatusRequest records a call outcome.
type StatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=CALLED_WILL_VERIFY CALLED_NOT_PICKED CALLED_REJECTED"`
	CallerName string `json:"callerName" validate:"required,min=1,max=100"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// ReleaseRequest identifies the caller giving up a lock.
type ReleaseRequest struct {
	CallerName string `json:"callerName" validate:"required,min=1,max=100"`
}

// SheetEntryResponse is one row of the call sheet.
type SheetEntryResponse struct {
	TeamID       string     `json:"teamId"`
	TeamName     string     `json:"teamName"`
	Organization string     `json:"organization"`
	LeaderName   string     `json:"leaderName"`
	LeaderEmail  string     `json:"leaderEmail"`
	LeaderPhone  string     `json:"leaderPhone"`
	Status       string     `json:"status"`
	LockedBy     string     `json:"lockedBy"`
	LockedAt     *time.Time `json:"lockedAt,omitempty"`
	CalledBy     string     `json:"calledBy"`
	Notes        string     `json:"notes"`
	LastCalledAt *time.Time `json:"lastCalledAt,omitempty"`
}

// SheetResponse wraps the call sheet.
type SheetResponse struct {
	Count int                  `json:"count"`
	Teams []SheetEntryResponse `json:"teams"`
}

// StatsResponse reports call-status counts over pending teams.
type StatsResponse struct {
	NotCalled   int `json:"notCalled"`
	BeingCalled int `json:"beingCalled"`
	WillVerify  int `json:"willVerify"`
	NotPicked   int `json:"notPicked"`
	Rejected    int `json:"rejected"`
	Total       int `json:"total"`
}
