package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rewind/internal/ai"
	"rewind/internal/auth"
	"rewind/internal/timeline"
)

type TimelineHandler struct {
	Svc *timeline.Service
}

type generateReq struct {
	MemoryRecordID   uint64                `json:"memoryRecordId"`
	ConversationID   *uint64               `json:"conversationId"`
	ConversationData *wireConversationData `json:"conversationData"`
}

// wireConversationData is the loosely-shaped conversation payload clients
// may attach to a generate request. It is mapped onto an ai.AnalysisContext
// right here; nothing downstream sees the wire shape.
type wireConversationData struct {
	CurrentConversation     []wireMessage `json:"currentConversation"`
	AllHistoryConversations []wireMessage `json:"allHistoryConversations"`
	ConversationCount       int           `json:"conversationCount"`
}

type wireMessage struct {
	Text             string `json:"text"`
	Sender           string `json:"sender"`
	ConversationID   string `json:"conversationId"`
	ConversationDate string `json:"conversationDate"`
}

func (d *wireConversationData) toContext() *ai.AnalysisContext {
	if d == nil {
		return nil
	}

	actx := &ai.AnalysisContext{ConversationCount: d.ConversationCount}
	for _, m := range d.AllHistoryConversations {
		actx.History = append(actx.History, ai.HistoryMessage{
			ConversationID:   m.ConversationID,
			ConversationDate: parseWireDate(m.ConversationDate),
			Sender:           m.Sender,
			Text:             m.Text,
		})
	}
	for _, m := range d.CurrentConversation {
		actx.Current = append(actx.Current, ai.ChatMessage{Sender: m.Sender, Text: m.Text})
	}

	if len(actx.History) == 0 && len(actx.Current) == 0 {
		return nil
	}
	return actx
}

func parseWireDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type analysisDTO struct {
	ID               uint64    `json:"id"`
	Stage            string    `json:"stage"`
	Insight          string    `json:"insight"`
	EmotionalState   string    `json:"emotionalState"`
	GrowthIndicators []string  `json:"growthIndicators"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (h *TimelineHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.MemoryRecordID == 0 {
		http.Error(w, "memoryRecordId required", http.StatusBadRequest)
		return
	}

	result, created, err := h.Svc.Generate(r.Context(), uid, timeline.GenerateInput{
		MemoryRecordID: req.MemoryRecordID,
		ConversationID: req.ConversationID,
		Context:        req.ConversationData.toContext(),
	})
	if err != nil {
		respondTimelineErr(w, err)
		return
	}

	msg := "Timeline analysis generated successfully"
	if !created {
		msg = "Timeline analysis already exists for this stage"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": msg,
		"analysis": analysisDTO{
			ID:               result.ID,
			Stage:            result.Stage,
			Insight:          result.Insight,
			EmotionalState:   result.EmotionalState,
			GrowthIndicators: timeline.NormalizeIndicators(result.GrowthIndicators),
			CreatedAt:        result.CreatedAt,
		},
	})
}

type timelineEntryDTO struct {
	Stage            string   `json:"stage"`
	Date             string   `json:"date"`
	Title            string   `json:"title"`
	Insight          string   `json:"insight"`
	EmotionalState   string   `json:"emotionalState"`
	GrowthIndicators []string `json:"growthIndicators"`
}

func (h *TimelineHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	memoryID, ok := pathID(w, r, "memoryId")
	if !ok {
		return
	}

	rec, entries, conversations, err := h.Svc.History(r.Context(), uid, memoryID)
	if err != nil {
		respondTimelineErr(w, err)
		return
	}

	out := make([]timelineEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, timelineEntryDTO{
			Stage:            e.Stage,
			Date:             e.Date,
			Title:            e.Title,
			Insight:          e.Insight,
			EmotionalState:   e.EmotionalState,
			GrowthIndicators: e.GrowthIndicators,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"memoryTitle":           rec.Title,
		"timeline":              out,
		"conversationsAnalyzed": conversations,
	})
}

func (h *TimelineHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	memoryID, ok := pathID(w, r, "memoryId")
	if !ok {
		return
	}

	deleted, remaining, err := h.Svc.Cleanup(r.Context(), uid, memoryID)
	if err != nil {
		respondTimelineErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":   "Duplicate analysis records cleaned up successfully",
		"deleted":   deleted,
		"remaining": remaining,
	})
}

func respondTimelineErr(w http.ResponseWriter, err error) {
	if errors.Is(err, timeline.ErrNotFound) {
		http.Error(w, "memory record not found", http.StatusNotFound)
		return
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}
