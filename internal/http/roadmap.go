package http

import (
	"net/http"
	"strings"

	"ai-hub/internal/repo"
	"ai-hub/internal/services/tools"
)

func (h *Handlers) ListRoadmap(w http.ResponseWriter, r *http.Request) {
	items, err := h.Roadmap.ListRoadmapItems(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]repo.RoadmapItem{"items": items})
}

func (h *Handlers) CreateRoadmapItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, r, errEmptyTitle)
		return
	}

	item, err := h.Roadmap.CreateRoadmapItem(r.Context(), userID(r), title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]repo.RoadmapItem{"item": item})
}

// UpdateRoadmapItem applies a partial update; absent fields keep their value.
func (h *Handlers) UpdateRoadmapItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Title    *string `json:"title"`
		Notes    *string `json:"notes"`
		Expanded *bool   `json:"expanded"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, r, errEmptyTitle)
		return
	}

	err = h.Roadmap.UpdateRoadmapItem(r.Context(), repo.UpdateRoadmapItemParams{
		ID:       id,
		UserID:   userID(r),
		Title:    req.Title,
		Notes:    req.Notes,
		Expanded: req.Expanded,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) DeleteRoadmapItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Roadmap.DeleteRoadmapItem(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, r, errEmptyText)
		return
	}

	subtask, err := h.Roadmap.CreateSubtask(r.Context(), userID(r), itemID, text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]repo.RoadmapSubtask{"subtask": subtask})
}

func (h *Handlers) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	subtask, err := h.Roadmap.ToggleSubtask(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]repo.RoadmapSubtask{"subtask": subtask})
}

func (h *Handlers) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Roadmap.DeleteSubtask(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// GenerateRoadmap expands an item title with the selected provider.
func (h *Handlers) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req tools.RoadmapGenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.Tools.RoadmapGenerate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
