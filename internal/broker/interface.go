package broker

import (
	"context"
	"time"

	"github.com/Baaaki/message-board/internal/models"
)

type EventType string

const (
	EventCreated EventType = "message.created"
	EventUpdated EventType = "message.updated"
	EventDeleted EventType = "message.deleted"
)

// Event describes one committed change to the messages table.
// Message is nil for deletions.
type Event struct {
	Type      EventType       `json:"type"`
	MessageID int64           `json:"messageId"`
	Message   *models.Message `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher is what the service needs to announce changes
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscription delivers events until closed
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// MessageBroker fans change events out to every server instance (and their websocket clients)
type MessageBroker interface {
	Publisher
	Subscribe(ctx context.Context) (Subscription, error)
	Close() error
}
