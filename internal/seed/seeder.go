// Package seed fills the messages table with template or generated content.
package seed

import (
	"context"

	"github.com/Baaaki/message-board/internal/models"
	"github.com/samber/lo"
)

// BulkBatchSize is how many generated messages go into one insert during bulk seeding
const BulkBatchSize = 50

// Store is the write side of the message repository used for seeding
type Store interface {
	BatchInsert(ctx context.Context, messages []models.Message) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// BatchFunc is called after each bulk batch is stored (1-based batch number)
type BatchFunc func(batch, inserted int)

type Seeder struct {
	store     Store
	templates *Templates
	generator *Generator
}

func NewSeeder(store Store, templates *Templates, generator *Generator) *Seeder {
	return &Seeder{
		store:     store,
		templates: templates,
		generator: generator,
	}
}

// SeedAll inserts every template message
func (s *Seeder) SeedAll(ctx context.Context) (int, error) {
	return s.insert(ctx, s.templates.All())
}

// SeedCategory inserts one category's templates
func (s *Seeder) SeedCategory(ctx context.Context, category string) (int, error) {
	contents, err := s.templates.Category(category)
	if err != nil {
		return 0, err
	}
	return s.insert(ctx, contents)
}

// SeedFake inserts count generated messages of one type
func (s *Seeder) SeedFake(ctx context.Context, count int, t FakeType) (int, error) {
	return s.insert(ctx, s.generator.Messages(count, t))
}

// SeedBulk inserts count mixed messages, BulkBatchSize per insert
func (s *Seeder) SeedBulk(ctx context.Context, count int, onBatch BatchFunc) (int, error) {
	total := 0
	for i, batch := range lo.Chunk(s.generator.Messages(count, FakeMixed), BulkBatchSize) {
		inserted, err := s.insert(ctx, batch)
		if err != nil {
			return total, err
		}
		total += inserted

		if onBatch != nil {
			onBatch(i+1, inserted)
		}
	}
	return total, nil
}

// Clear deletes every message
func (s *Seeder) Clear(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}

func (s *Seeder) insert(ctx context.Context, contents []string) (int, error) {
	messages := lo.Map(contents, func(content string, _ int) models.Message {
		return models.Message{Content: content}
	})
	return s.store.BatchInsert(ctx, messages)
}
