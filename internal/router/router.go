package router

import (
	"encoding/json"
	"net/http"

	"github.com/agentdash/backend/internal/activity"
	"github.com/agentdash/backend/internal/agents"
	"github.com/agentdash/backend/internal/tasks"
)

// New returns an http.Handler serving the dashboard API under /api.
func New(taskHandler *tasks.Handler, agentHandler *agents.Handler, activityHandler *activity.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", taskHandler.List)
	mux.HandleFunc("POST /api/tasks", taskHandler.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", taskHandler.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskHandler.Delete)

	mux.HandleFunc("GET /api/agents", agentHandler.List)
	mux.HandleFunc("POST /api/agents", agentHandler.Create)
	mux.HandleFunc("PATCH /api/agents/{id}", agentHandler.Update)
	mux.HandleFunc("DELETE /api/agents/{id}", agentHandler.Delete)

	mux.HandleFunc("GET /api/activity", activityHandler.Recent)
	mux.HandleFunc("GET /api/health", health)

	return mux
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
