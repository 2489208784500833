package repository

//go:generate mockgen -source=message_repository.go -destination=../mocks/mock_message_repository.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/message-board/internal/apperror"
	"github.com/Baaaki/message-board/internal/database"
	"github.com/Baaaki/message-board/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedBatchSize bounds a single INSERT during bulk seeding
const seedBatchSize = 50

// MessageStore is the set of statements the service runs against the messages table.
type MessageStore interface {
	FindAll(ctx context.Context) ([]models.Message, error)
	FindByID(ctx context.Context, id int64) (*models.Message, error)
	Create(ctx context.Context, message *models.Message) error
	UpdateContent(ctx context.Context, id int64, content string) (*models.Message, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type MessageRepository struct {
	db *gorm.DB
}

var _ MessageStore = (*MessageRepository)(nil)

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// FindAll returns every message ordered by id. Never returns a nil slice.
func (r *MessageRepository) FindAll(ctx context.Context) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	err := r.db.WithContext(ctx).Order("id ASC").Find(&messages).Error
	if err != nil {
		return nil, wrapErr("fetch messages", err)
	}
	return messages, nil
}

// FindByID returns (nil, nil) when the row does not exist
func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapErr("fetch message", err)
	}
	return &message, nil
}

// Create inserts the message and fills in ID and CreatedAt
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	// postgres keeps microseconds, so the returned value matches later reads
	message.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return wrapErr("create message", err)
	}
	return nil
}

// UpdateContent rewrites content only and returns the updated row, or (nil, nil) when absent
func (r *MessageRepository) UpdateContent(ctx context.Context, id int64, content string) (*models.Message, error) {
	var updated []models.Message
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("content", content)
	if result.Error != nil {
		return nil, wrapErr("update message", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, nil
	}
	if len(updated) > 0 {
		return &updated[0], nil
	}

	// Dialect without RETURNING support
	return r.FindByID(ctx, id)
}

// Delete hard-deletes the row and reports whether one existed
func (r *MessageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return false, wrapErr("delete message", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// BatchInsert bulk inserts messages (seeding only)
func (r *MessageRepository) BatchInsert(ctx context.Context, messages []models.Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := range messages {
		if messages[i].CreatedAt.IsZero() {
			messages[i].CreatedAt = now
		}
	}

	if err := r.db.WithContext(ctx).CreateInBatches(messages, seedBatchSize).Error; err != nil {
		return 0, wrapErr("insert messages", err)
	}
	return len(messages), nil
}

// DeleteAll empties the table (seeding only)
func (r *MessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Message{})
	if result.Error != nil {
		return 0, wrapErr("clear messages", result.Error)
	}
	return result.RowsAffected, nil
}

func wrapErr(op string, err error) error {
	if database.IsUnavailable(err) {
		return apperror.Unavailable(err)
	}
	return apperror.Persistence(op, err)
}
