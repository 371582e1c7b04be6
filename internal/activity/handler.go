package activity

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Handler serves the activity log read path.
type Handler struct {
	logger *Logger
	log    *slog.Logger
}

func NewHandler(logger *Logger, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{logger: logger, log: log}
}

// Recent handles GET /api/activity?limit=N. No limit returns the whole log.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		n = parsed
	}
	entries, err := h.logger.Recent(r.Context(), n)
	if err != nil {
		h.log.Error("list activity failed", "error", err)
		http.Error(w, `{"error":"Failed to fetch activity"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
