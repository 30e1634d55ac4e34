package events

import (
	"context"
	"testing"
	"time"

	"hackdesk_backend/platform/logger"
)

type stubEvent struct {
	BaseEvent
}

func (stubEvent) EventName() string { return "stub.happened" }

func TestPublishSurvivesPublisherCancellation(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	handled := make(chan error, 1)
	bus.Subscribe("stub.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		handled <- ctx.Err()
		return nil
	}))

	// The publishing request's context is already gone, as it is when an
	// upload response closes before async handlers run.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, stubEvent{BaseEvent: NewBaseEvent()})

	select {
	case err := <-handled:
		if err != nil {
			t.Fatalf("handler context was cancelled: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestPublishSyncReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	bus.Subscribe("stub.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return context.DeadlineExceeded
	}))

	if err := bus.PublishSync(context.Background(), stubEvent{BaseEvent: NewBaseEvent()}); err != context.DeadlineExceeded {
		t.Fatalf("expected handler error, got %v", err)
	}
}
