package timeline

import (
	"context"
	"errors"

	"rewind/internal/chat"
	"rewind/internal/memory"

	"gorm.io/gorm"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

func (g *GormStore) MemoryByID(ctx context.Context, userID, memoryID uint64) (*memory.MemoryRecord, error) {
	var rec memory.MemoryRecord
	err := g.DB.WithContext(ctx).
		Where("id=? AND user_id=?", memoryID, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (g *GormStore) AnalysesForMemory(ctx context.Context, userID, memoryID uint64) ([]Analysis, error) {
	var rows []Analysis
	err := g.DB.WithContext(ctx).
		Where("memory_record_id=? AND user_id=?", memoryID, userID).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *GormStore) ConversationMessages(ctx context.Context, userID, conversationID, memoryID uint64) ([]chat.Message, error) {
	var conv chat.Conversation
	err := g.DB.WithContext(ctx).
		Where("id=? AND user_id=? AND memory_record_id=?", conversationID, userID, memoryID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv.DecodeMessages()
}

func (g *GormStore) CreateAnalysis(ctx context.Context, a *Analysis) error {
	return g.DB.WithContext(ctx).Create(a).Error
}

func (g *GormStore) DeleteAnalyses(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return g.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&Analysis{}).Error
}
