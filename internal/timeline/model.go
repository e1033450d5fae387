package timeline

import (
	"time"

	"github.com/lib/pq"
)

// Analysis is one stage of a memory record's psychological timeline. At
// most one row per (memory record, stage) is intended; the check happens
// before insert, not in the schema, so duplicates can slip through under
// concurrency and are reconciled afterwards (see PlanDedup).
type Analysis struct {
	ID               uint64  `gorm:"primaryKey"`
	UserID           uint64  `gorm:"index;not null"`
	MemoryRecordID   uint64  `gorm:"index;not null"`
	ConversationID   *uint64 `gorm:"index"`
	Stage            string  `gorm:"not null"`
	Insight          string  `gorm:"type:text;not null"`
	EmotionalState   string  `gorm:"type:text;not null"`
	GrowthIndicators pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt        time.Time `gorm:"not null;default:now()"`
}

func (Analysis) TableName() string { return "timeline_analyses" }
