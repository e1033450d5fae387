package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"rewind/internal/auth"
	"rewind/internal/chat"
	"rewind/internal/memory"

	"gorm.io/gorm"
)

type ChatHandler struct {
	Svc *chat.Service
	DB  *gorm.DB
}

type memorySummaryDTO struct {
	ID      uint64    `json:"id"`
	Title   *string   `json:"title"`
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
}

type startChatReq struct {
	MemoryRecordID uint64 `json:"memoryRecordId"`
}

func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req startChatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	conv, rec, err := h.Svc.Start(r.Context(), uid, req.MemoryRecordID)
	if err != nil {
		respondChatErr(w, err)
		return
	}

	msgs, err := conv.DecodeMessages()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Conversation started successfully",
		"conversation": map[string]any{
			"id": conv.ID,
			"memoryRecord": memorySummaryDTO{
				ID:      rec.ID,
				Title:   rec.Title,
				Date:    rec.CreatedAt,
				Content: rec.Content,
			},
			"messages": msgs,
		},
	})
}

type sendMessageReq struct {
	Message string `json:"message"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req sendMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	newMsgs, err := h.Svc.SendMessage(r.Context(), uid, id, req.Message)
	if err != nil {
		respondChatErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":     "Message sent successfully",
		"newMessages": newMsgs,
	})
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	conv, rec, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		respondChatErr(w, err)
		return
	}

	msgs, err := conv.DecodeMessages()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation": map[string]any{
			"id": conv.ID,
			"memoryRecord": memorySummaryDTO{
				ID:      rec.ID,
				Title:   rec.Title,
				Date:    rec.CreatedAt,
				Content: rec.Content,
			},
			"messages":  msgs,
			"createdAt": conv.CreatedAt,
			"updatedAt": conv.UpdatedAt,
		},
	})
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page, limit := pagination(r)

	convs, total, err := h.Svc.List(r.Context(), uid, page, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	// fetch the referenced memory records in one pass
	ids := make([]uint64, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.MemoryRecordID)
	}
	records := map[uint64]memory.MemoryRecord{}
	if len(ids) > 0 {
		var rows []memory.MemoryRecord
		if err := h.DB.Where("id IN ? AND user_id=?", ids, uid).Find(&rows).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		for _, rec := range rows {
			records[rec.ID] = rec
		}
	}

	out := make([]map[string]any, 0, len(convs))
	for _, c := range convs {
		msgs, err := c.DecodeMessages()
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		var last *chat.Message
		if len(msgs) > 0 {
			last = &msgs[len(msgs)-1]
		}

		item := map[string]any{
			"id":           c.ID,
			"lastMessage":  last,
			"messageCount": len(msgs),
			"createdAt":    c.CreatedAt,
			"updatedAt":    c.UpdatedAt,
		}
		if rec, ok := records[c.MemoryRecordID]; ok {
			item["memoryRecord"] = map[string]any{
				"id":        rec.ID,
				"title":     rec.Title,
				"createdAt": rec.CreatedAt,
			}
		}
		out = append(out, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversations": out,
		"pagination":    paginationDTO(page, limit, total),
	})
}

func respondChatErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, chat.ErrEmptyMessage):
		http.Error(w, "message required", http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
