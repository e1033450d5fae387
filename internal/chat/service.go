package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"rewind/internal/ai"
	"rewind/internal/memory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrEmptyMessage = errors.New("empty message")

type Service struct {
	DB        *gorm.DB
	Completer ai.Completer
	Log       *zap.Logger
}

// Start creates a conversation seeded with a greeting from the past self.
func (s *Service) Start(ctx context.Context, userID, memoryRecordID uint64) (*Conversation, *memory.MemoryRecord, error) {
	var rec memory.MemoryRecord
	err := s.DB.WithContext(ctx).
		Where("id=? AND user_id=?", memoryRecordID, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	title := "一些想法"
	if rec.Title != nil && *rec.Title != "" {
		title = *rec.Title
	}
	greeting := Message{
		ID:        newMessageID(),
		Text:      fmt.Sprintf("你好！我是%s的你。当时我记录了\"%s\"，想和现在的你聊聊这个话题。", rec.CreatedAt.Format("2006/1/2"), title),
		Sender:    SenderPastSelf,
		Timestamp: time.Now(),
	}

	encoded, err := EncodeMessages([]Message{greeting})
	if err != nil {
		return nil, nil, err
	}

	conv := Conversation{
		UserID:         userID,
		MemoryRecordID: memoryRecordID,
		Messages:       encoded,
	}
	if err := s.DB.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, nil, err
	}
	return &conv, &rec, nil
}

// SendMessage appends the user's message and a past-self reply, returning
// both. A failed completion degrades to a canned in-character reply; the
// endpoint never hard-fails because the model was unreachable.
func (s *Service) SendMessage(ctx context.Context, userID, conversationID uint64, text string) ([]Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv, rec, err := s.load(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := conv.DecodeMessages()
	if err != nil {
		return nil, err
	}

	userMsg := Message{
		ID:        newMessageID(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
	msgs = append(msgs, userMsg)

	replyText := s.pastSelfReply(ctx, rec, msgs[:len(msgs)-1], text)
	replyMsg := Message{
		ID:        newMessageID(),
		Text:      replyText,
		Sender:    SenderPastSelf,
		Timestamp: time.Now(),
	}
	msgs = append(msgs, replyMsg)

	encoded, err := EncodeMessages(msgs)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Model(&Conversation{}).
		Where("id=? AND user_id=?", conversationID, userID).
		Updates(map[string]any{"messages": encoded, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, err
	}

	return []Message{userMsg, replyMsg}, nil
}

func (s *Service) Get(ctx context.Context, userID, conversationID uint64) (*Conversation, *memory.MemoryRecord, error) {
	return s.load(ctx, userID, conversationID)
}

func (s *Service) List(ctx context.Context, userID uint64, page, limit int) ([]Conversation, int64, error) {
	var total int64
	q := s.DB.WithContext(ctx).Model(&Conversation{}).Where("user_id=?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Conversation
	err := s.DB.WithContext(ctx).
		Where("user_id=?", userID).
		Order("updated_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) load(ctx context.Context, userID, conversationID uint64) (*Conversation, *memory.MemoryRecord, error) {
	var conv Conversation
	err := s.DB.WithContext(ctx).
		Where("id=? AND user_id=?", conversationID, userID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var rec memory.MemoryRecord
	err = s.DB.WithContext(ctx).
		Where("id=? AND user_id=?", conv.MemoryRecordID, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return &conv, &rec, nil
}

func (s *Service) pastSelfReply(ctx context.Context, rec *memory.MemoryRecord, history []Message, userText string) string {
	chatHistory := make([]ai.ChatMessage, 0, len(history))
	for _, m := range history {
		chatHistory = append(chatHistory, ai.ChatMessage{Sender: m.Sender, Text: m.Text})
	}

	reply, err := s.Completer.Complete(ctx,
		ai.ComposePastSelf(rec.Content, chatHistory, userText),
		ai.CompletionOptions{Temperature: 0.8, MaxTokens: 1000},
	)
	if err != nil {
		s.Log.Warn("past-self completion failed, using canned reply",
			zap.Uint64("memory_record_id", rec.ID),
			zap.Error(err))
		return cannedReply(rec)
	}
	return reply
}

func cannedReply(rec *memory.MemoryRecord) string {
	title := "那些想法"
	if rec.Title != nil && *rec.Title != "" {
		title = *rec.Title
	}
	replies := []string{
		fmt.Sprintf("那时候的我确实是这么想的。关于\"%s\"，我记得...", title),
		"这个话题让我想起了当时的情况。你现在怎么看待这个问题呢？",
		"有趣，现在的你和那时的我有什么不同的看法吗？",
		"我记得那段时间我特别关注这件事，现在你还是这样想吗？",
		"这让我想起了当时记录这些想法时的心情...",
	}
	return replies[rand.Intn(len(replies))]
}

func newMessageID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
