package service

import (
	"context"
	"strings"
	"time"

	"github.com/Baaaki/message-board/internal/apperror"
	"github.com/Baaaki/message-board/internal/broker"
	"github.com/Baaaki/message-board/internal/models"
	"github.com/Baaaki/message-board/internal/repository"
	"github.com/Baaaki/message-board/pkg/logger"
	"go.uber.org/zap"
)

const (
	MsgContentRequired = "message content cannot be empty"
	MsgInvalidID       = "invalid message ID" // id segment is not an integer
	MsgNotFound        = "message not found"
)

type MessageService struct {
	messageRepo repository.MessageStore // for database
	events      broker.Publisher        // optional, nil disables change events
}

func NewMessageService(messageRepo repository.MessageStore, events broker.Publisher) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		events:      events,
	}
}

// ListAll returns every message, ordered by id
func (s *MessageService) ListAll(ctx context.Context) ([]models.Message, error) {
	start := time.Now()

	messages, err := s.messageRepo.FindAll(ctx)
	if err != nil {
		logger.Log.Error("Failed to list messages", zap.Error(err))
		return nil, err
	}

	logger.Log.Debug("Listed messages",
		zap.Int("count", len(messages)),
		zap.Duration("duration", time.Since(start)),
	)
	return messages, nil
}

// GetByID returns (nil, nil) when no message has that id, zero and negative ids included
func (s *MessageService) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to fetch message",
			zap.Int64("message_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return message, nil
}

func (s *MessageService) Create(ctx context.Context, content string) (*models.Message, error) {
	start := time.Now()

	trimmed, err := validateContent(content)
	if err != nil {
		logger.Log.Debug("Create rejected", zap.Error(err))
		return nil, err
	}

	message := &models.Message{Content: trimmed}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		logger.Log.Error("Failed to create message", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Message created",
		zap.Int64("message_id", message.ID),
		zap.Int("content_length", len(message.Content)),
		zap.Duration("duration", time.Since(start)),
	)

	s.publish(ctx, broker.EventCreated, message.ID, message)
	return message, nil
}

// Update replaces the content of an existing message; returns (nil, nil) when absent.
// ID and CreatedAt are never touched.
func (s *MessageService) Update(ctx context.Context, id int64, content string) (*models.Message, error) {
	start := time.Now()

	trimmed, err := validateContent(content)
	if err != nil {
		logger.Log.Debug("Update rejected",
			zap.Int64("message_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	message, err := s.messageRepo.UpdateContent(ctx, id, trimmed)
	if err != nil {
		logger.Log.Error("Failed to update message",
			zap.Int64("message_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	if message == nil {
		return nil, nil
	}

	logger.Log.Info("Message updated",
		zap.Int64("message_id", id),
		zap.Duration("duration", time.Since(start)),
	)

	s.publish(ctx, broker.EventUpdated, id, message)
	return message, nil
}

// Delete reports false when nothing was deleted, so repeating it is harmless
func (s *MessageService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.messageRepo.Delete(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete message",
			zap.Int64("message_id", id),
			zap.Error(err),
		)
		return false, err
	}
	if !deleted {
		return false, nil
	}

	logger.Log.Info("Message deleted", zap.Int64("message_id", id))

	s.publish(ctx, broker.EventDeleted, id, nil)
	return true, nil
}

// publish is best-effort: the write already committed
func (s *MessageService) publish(ctx context.Context, eventType broker.EventType, id int64, message *models.Message) {
	if s.events == nil {
		return
	}

	event := broker.Event{
		Type:      eventType,
		MessageID: id,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish message event",
			zap.String("type", string(eventType)),
			zap.Int64("message_id", id),
			zap.Error(err),
		)
	}
}

func validateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperror.Validation(MsgContentRequired)
	}
	return trimmed, nil
}
