package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rewind/internal/memory"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrNoRecords = errors.New("no memory records in range")

type Service struct {
	DB *gorm.DB
}

// Generate builds a report over the user's records in the given range and
// persists it. ErrNoRecords when the range is empty.
func (s *Service) Generate(ctx context.Context, userID uint64, timeRange, analysisType string) (*ThoughtAnalysis, *Report, error) {
	q := s.DB.WithContext(ctx).Where("user_id=?", userID)
	if start, ok := StartForRange(timeRange, time.Now()); ok {
		q = q.Where("created_at >= ?", start)
	}

	var records []memory.MemoryRecord
	if err := q.Order("created_at asc").Find(&records).Error; err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, ErrNoRecords
	}

	report := BuildReport(records, timeRange)
	body, err := json.Marshal(report)
	if err != nil {
		return nil, nil, err
	}

	row := ThoughtAnalysis{
		UserID:       userID,
		AnalysisType: analysisType,
		TimeRange:    timeRange,
		Result:       body,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, nil, err
	}
	return &row, &report, nil
}

func (s *Service) List(ctx context.Context, userID uint64, page, limit int) ([]ThoughtAnalysis, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&ThoughtAnalysis{}).Where("user_id=?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ThoughtAnalysis
	err := s.DB.WithContext(ctx).
		Where("user_id=?", userID).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*ThoughtAnalysis, error) {
	var row ThoughtAnalysis
	err := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	res := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).Delete(&ThoughtAnalysis{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
