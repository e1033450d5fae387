package chat

import (
	"encoding/json"
	"time"
)

const (
	SenderUser     = "user"
	SenderPastSelf = "past-self"
)

// Message is one turn of a dialogue. Conversations grow by appends only.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation binds a message log to one memory record. The log is kept as
// a jsonb document; it is always read and written whole.
type Conversation struct {
	ID             uint64          `gorm:"primaryKey"`
	UserID         uint64          `gorm:"index;not null"`
	MemoryRecordID uint64          `gorm:"index;not null"`
	Messages       json.RawMessage `gorm:"type:jsonb;not null;default:'[]'::jsonb"`
	CreatedAt      time.Time       `gorm:"not null;default:now()"`
	UpdatedAt      time.Time       `gorm:"not null;default:now()"`
}

func (c *Conversation) DecodeMessages() ([]Message, error) {
	var msgs []Message
	if len(c.Messages) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(c.Messages, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func EncodeMessages(msgs []Message) (json.RawMessage, error) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
