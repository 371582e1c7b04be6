package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentdash/backend/internal/store"
)

// Handler serves the /api/tasks endpoints.
type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	AgentID     string     `json:"agentId"`
}

// List handles GET /api/tasks?agentId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.List(r.Context(), r.URL.Query().Get("agentId"))
	if err != nil {
		h.log.Error("list tasks failed", "error", err)
		http.Error(w, `{"error":"Failed to fetch tasks"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// Create handles POST /api/tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	task, err := h.svc.Create(r.Context(), CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		AgentID:     req.AgentID,
	})
	if err != nil {
		if errors.Is(err, ErrTitleRequired) {
			http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
			return
		}
		h.log.Error("create task failed", "error", err)
		http.Error(w, `{"error":"Failed to create task"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// Update handles PATCH /api/tasks/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	task, err := h.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Task not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("update task failed", "error", err)
		http.Error(w, `{"error":"Failed to update task"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Task not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("delete task failed", "error", err)
		http.Error(w, `{"error":"Failed to delete task"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
