package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"rewind/internal/analysis"
	"rewind/internal/auth"
)

type AnalysisHandler struct {
	Svc *analysis.Service
}

type generateAnalysisReq struct {
	TimeRange    string `json:"timeRange"`
	AnalysisType string `json:"analysisType"`
}

func (h *AnalysisHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req generateAnalysisReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	row, _, err := h.Svc.Generate(r.Context(), uid, req.TimeRange, req.AnalysisType)
	if err != nil {
		if errors.Is(err, analysis.ErrNoRecords) {
			http.Error(w, "no memory records found for the specified time range", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := reportFields(row.Result)
	out["id"] = row.ID
	out["createdAt"] = row.CreatedAt

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":  "Analysis generated successfully",
		"analysis": out,
	})
}

func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page, limit := pagination(r)

	rows, total, err := h.Svc.List(r.Context(), uid, page, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := reportFields(row.Result)
		item["id"] = row.ID
		item["analysisType"] = row.AnalysisType
		item["timeRange"] = row.TimeRange
		item["createdAt"] = row.CreatedAt
		out = append(out, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"analyses":   out,
		"pagination": paginationDTO(page, limit, total),
	})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	row, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		respondAnalysisErr(w, err)
		return
	}

	out := reportFields(row.Result)
	out["id"] = row.ID
	out["analysisType"] = row.AnalysisType
	out["timeRange"] = row.TimeRange
	out["createdAt"] = row.CreatedAt

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"analysis": out})
}

func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		respondAnalysisErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"message": "Analysis deleted successfully"})
}

// reportFields flattens the stored report body into the response object.
func reportFields(raw []byte) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func respondAnalysisErr(w http.ResponseWriter, err error) {
	if errors.Is(err, analysis.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}
