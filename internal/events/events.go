// Package events re-exports the platform event bus and defines the domain
// events exchanged between modules.
package events

import (
	platformevents "hackdesk_backend/platform/events"
	"hackdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Event is a type alias to the platform Event interface.
type Event = platformevents.Event

// Bus is a type alias to the platform Bus interface.
type Bus = platformevents.Bus

// Handler is a type alias to the platform Handler interface.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform HandlerFunc adapter.
type HandlerFunc = platformevents.HandlerFunc

// BaseEvent is a type alias to the platform BaseEvent.
type BaseEvent = platformevents.BaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// TeamsImported is published after a CSV import has been reconciled into
// the store. Consumers must tolerate partial imports (FailedTeams > 0).
type TeamsImported struct {
	BaseEvent
	JobID        uuid.UUID
	NewTeams     int
	UpdatedTeams int
	RemovedTeams int
	FailedTeams  int
}

// EventName returns the unique event identifier.
func (e TeamsImported) EventName() string { return "teams.imported" }
