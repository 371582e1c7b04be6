package agents

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agentdash/backend/internal/store"
)

// Handler serves the /api/agents endpoints.
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

type spawnAgentRequest struct {
	Label           string `json:"label"`
	TaskDescription string `json:"taskDescription"`
}

// List handles GET /api/agents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("list agents failed", "error", err)
		http.Error(w, `{"error":"Failed to fetch agents"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// Create handles POST /api/agents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req spawnAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	agent, err := h.svc.Spawn(r.Context(), SpawnParams{
		Label:           req.Label,
		TaskDescription: req.TaskDescription,
	})
	if err != nil {
		h.log.Error("spawn agent failed", "error", err)
		http.Error(w, `{"error":"Failed to create agent"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

// Update handles PATCH /api/agents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	agent, err := h.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Agent not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("update agent failed", "error", err)
		http.Error(w, `{"error":"Failed to update agent"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// Delete handles DELETE /api/agents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Agent not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("delete agent failed", "error", err)
		http.Error(w, `{"error":"Failed to delete agent"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
