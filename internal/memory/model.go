package memory

import "time"

// MemoryRecord is a private diary entry. Title, mood and tags are optional;
// tags are stored as the user supplied them, a comma-joined string.
type MemoryRecord struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Title     *string   `gorm:"type:text"`
	Content   string    `gorm:"type:text;not null"`
	Mood      *int
	Tags      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
