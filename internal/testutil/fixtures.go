package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Baaaki/message-board/internal/broker"
	"github.com/Baaaki/message-board/internal/models"
	"gorm.io/gorm"
)

// CreateTestMessage inserts a message directly, bypassing the service
func CreateTestMessage(t *testing.T, db *gorm.DB, content string) *models.Message {
	t.Helper()

	msg := &models.Message{
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}
	return msg
}

// CountMessages returns the number of rows in the messages table
func CountMessages(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count messages: %v", err)
	}
	return count
}

// RecordingPublisher is an in-memory broker.Publisher
type RecordingPublisher struct {
	mu     sync.Mutex
	events []broker.Event
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, event broker.Event) error {
	if p.Err != nil {
		return p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []broker.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broker.Event(nil), p.events...)
}
