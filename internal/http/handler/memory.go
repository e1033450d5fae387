package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rewind/internal/auth"
	"rewind/internal/memory"

	"github.com/go-chi/chi/v5"
)

type MemoryHandler struct {
	Svc *memory.Service
}

type recordDTO struct {
	ID        uint64    `json:"id"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	Mood      *int      `json:"mood"`
	Tags      *string   `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRecordDTO(r *memory.MemoryRecord) recordDTO {
	return recordDTO{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Mood:      r.Mood,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type createRecordReq struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
	Mood    *int    `json:"mood"`
	Tags    *string `json:"tags"`
}

func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createRecordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}

	rec, err := h.Svc.Create(r.Context(), uid, memory.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Mood:    req.Mood,
		Tags:    req.Tags,
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Memory record created successfully",
		"record":  toRecordDTO(rec),
	})
}

func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page, limit := pagination(r)

	rows, total, err := h.Svc.List(r.Context(), uid, page, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]recordDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toRecordDTO(&rows[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"records":    out,
		"pagination": paginationDTO(page, limit, total),
	})
}

func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "search query required", http.StatusBadRequest)
		return
	}
	page, limit := pagination(r)

	rows, err := h.Svc.Search(r.Context(), uid, query, page, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]recordDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toRecordDTO(&rows[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"records": out})
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		respondMemoryErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"record": toRecordDTO(rec)})
}

func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req memory.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	rec, err := h.Svc.Update(r.Context(), uid, id, req)
	if err != nil {
		respondMemoryErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Memory record updated successfully",
		"record":  toRecordDTO(rec),
	})
}

func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		respondMemoryErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"message": "Memory record deleted successfully"})
}

func respondMemoryErr(w http.ResponseWriter, err error) {
	if errors.Is(err, memory.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

func paginationDTO(page, limit int, total int64) map[string]any {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return map[string]any{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
	}
}
