package events

import (
	"context"
	"time"
)

// LifecycleEvent is the message emitted after every successful task
// transition. Consumers fan it out into per-user notifications.
type LifecycleEvent struct {
	TaskID     string    `json:"taskId"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	ClientID   string    `json:"clientId"`
	Recipients []string  `json:"recipients"`
	Details    string    `json:"details,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers lifecycle events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ LifecycleEvent) error { return nil }
func (NoopPublisher) Close() error                                      { return nil }
