package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentdash/backend/internal/models"
	"github.com/agentdash/backend/internal/store"
)

// --- Service mock ---

type mockService struct {
	roster    *Roster
	spawned   *models.Agent
	updated   *models.Agent
	deleteErr error
	lastPatch Patch
}

func (m *mockService) List(context.Context) (*Roster, error) {
	return m.roster, nil
}

func (m *mockService) Spawn(_ context.Context, p SpawnParams) (*models.Agent, error) {
	return m.spawned, nil
}

func (m *mockService) Update(_ context.Context, id string, p Patch) (*models.Agent, error) {
	if m.updated == nil || m.updated.ID != id {
		return nil, store.ErrNotFound
	}
	m.lastPatch = p
	return m.updated, nil
}

func (m *mockService) Delete(context.Context, string) error {
	return m.deleteErr
}

func TestListAgents(t *testing.T) {
	svc := &mockService{roster: &Roster{
		Agents:      map[string]models.Agent{"agent-1": {ID: "agent-1", Label: "Indexer"}},
		LastUpdated: time.Now().UTC(),
	}}
	h := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var roster Roster
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := roster.Agents["agent-1"]; !ok {
		t.Errorf("missing agent-1 in roster: %+v", roster)
	}
	if roster.LastUpdated.IsZero() {
		t.Error("lastUpdated missing")
	}
}

func TestCreateAgent(t *testing.T) {
	svc := &mockService{spawned: &models.Agent{ID: "agent-1", Label: "Indexer", Status: models.AgentStatusActive}}
	h := NewHandler(svc, nil)

	body := `{"label": "Indexer", "taskDescription": "indexing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/agents", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var agent models.Agent
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if agent.Status != models.AgentStatusActive {
		t.Errorf("expected active status, got %q", agent.Status)
	}
}

func TestUpdateAgent_CountersForwarded(t *testing.T) {
	svc := &mockService{updated: &models.Agent{ID: "agent-1", Label: "Indexer"}}
	h := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/agents/agent-1", strings.NewReader(`{"taskCount": 4, "completedCount": 2}`))
	req.SetPathValue("id", "agent-1")
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastPatch.TaskCount == nil || *svc.lastPatch.TaskCount != 4 {
		t.Errorf("taskCount not forwarded: %+v", svc.lastPatch)
	}
	if svc.lastPatch.Label != nil {
		t.Error("absent fields must stay nil in the patch")
	}
}

func TestUpdateAgent_NotFound(t *testing.T) {
	h := NewHandler(&mockService{}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/agents/ghost", strings.NewReader(`{"status": "idle"}`))
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteAgent(t *testing.T) {
	h := NewHandler(&mockService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/agents/agent-1", nil)
	req.SetPathValue("id", "agent-1")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteAgent_NotFound(t *testing.T) {
	h := NewHandler(&mockService{deleteErr: store.ErrNotFound}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/agents/ghost", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
