package analysis

import (
	"encoding/json"
	"time"
)

// ThoughtAnalysis is a persisted report over a time range of memory
// records. The report body is stored whole as jsonb.
type ThoughtAnalysis struct {
	ID           uint64          `gorm:"primaryKey"`
	UserID       uint64          `gorm:"index;not null"`
	AnalysisType string          `gorm:"not null"`
	TimeRange    string          `gorm:"not null"`
	Result       json.RawMessage `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	CreatedAt    time.Time       `gorm:"not null;default:now()"`
}

func (ThoughtAnalysis) TableName() string { return "thought_analyses" }
