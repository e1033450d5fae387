package memory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Title   *string
	Content string
	Mood    *int
	Tags    *string
}

type UpdateInput struct {
	Title   *string
	Content *string
	Mood    *int
	Tags    *string
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*MemoryRecord, error) {
	rec := MemoryRecord{
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
		Mood:    in.Mood,
		Tags:    in.Tags,
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*MemoryRecord, error) {
	var rec MemoryRecord
	err := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Service) List(ctx context.Context, userID uint64, page, limit int) ([]MemoryRecord, int64, error) {
	var rows []MemoryRecord
	q := s.DB.WithContext(ctx).Where("user_id=?", userID)

	var total int64
	if err := q.Model(&MemoryRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) Search(ctx context.Context, userID uint64, query string, page, limit int) ([]MemoryRecord, error) {
	var rows []MemoryRecord
	like := "%" + query + "%"
	err := s.DB.WithContext(ctx).
		Where("user_id=?", userID).
		Where("title ILIKE ? OR content ILIKE ? OR tags ILIKE ?", like, like, like).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) (*MemoryRecord, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Mood != nil {
		updates["mood"] = *in.Mood
	}
	if in.Tags != nil {
		updates["tags"] = *in.Tags
	}
	if len(updates) == 0 {
		return rec, nil
	}

	err = s.DB.WithContext(ctx).Model(&MemoryRecord{}).
		Where("id=? AND user_id=?", id, userID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes the record and everything hanging off it. The cascade is
// explicit rather than a storage constraint; dependents live in other
// packages, so raw table deletes keep this package a leaf.
func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec MemoryRecord
		if err := tx.Where("id=? AND user_id=?", id, userID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Exec(`delete from timeline_analyses where memory_record_id=? and user_id=?`, id, userID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`delete from conversations where memory_record_id=? and user_id=?`, id, userID).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}
