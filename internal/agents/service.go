package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentdash/backend/internal/activity"
	"github.com/agentdash/backend/internal/models"
	"github.com/agentdash/backend/internal/store"
)

type SpawnParams struct {
	Label           string
	TaskDescription string
}

// Patch is a shallow-merge update: nil fields are left untouched. Counters
// are caller-supplied, matching the observed dashboard contract.
type Patch struct {
	Label          *string `json:"label"`
	Status         *string `json:"status"`
	CurrentTask    *string `json:"currentTask"`
	TaskCount      *int    `json:"taskCount"`
	CompletedCount *int    `json:"completedCount"`
}

// Roster is the agents document the polling UI reads.
type Roster struct {
	Agents      map[string]models.Agent `json:"agents"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

type Service interface {
	List(ctx context.Context) (*Roster, error)
	Spawn(ctx context.Context, p SpawnParams) (*models.Agent, error)
	Update(ctx context.Context, id string, p Patch) (*models.Agent, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	agents   store.AgentStore
	activity *activity.Logger
}

func NewService(agents store.AgentStore, logger *activity.Logger) *service {
	return &service{agents: agents, activity: logger}
}

var _ Service = (*service)(nil)

func (s *service) List(ctx context.Context) (*Roster, error) {
	agents, lastUpdated, err := s.agents.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Roster{Agents: agents, LastUpdated: lastUpdated}, nil
}

func (s *service) Spawn(ctx context.Context, p SpawnParams) (*models.Agent, error) {
	label := p.Label
	if label == "" {
		n, err := s.agents.Count(ctx)
		if err != nil {
			return nil, err
		}
		label = fmt.Sprintf("Agent %d", n+1)
	}
	now := time.Now().UTC()
	a := &models.Agent{
		ID:               "agent-" + uuid.New().String(),
		Label:            label,
		Status:           models.AgentStatusActive,
		SpawnedTime:      now,
		LastActivityTime: now,
		CurrentTask:      p.TaskDescription,
	}
	if err := s.agents.Insert(ctx, a); err != nil {
		return nil, err
	}
	if err := s.activity.Record(ctx, models.ActivityEntry{
		Action:  models.ActionAgentSpawned,
		AgentID: a.ID,
		Details: a.Label,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, id string, p Patch) (*models.Agent, error) {
	return s.agents.Update(ctx, id, func(a *models.Agent) {
		if p.Label != nil {
			a.Label = *p.Label
		}
		if p.Status != nil {
			a.Status = *p.Status
		}
		if p.CurrentTask != nil {
			a.CurrentTask = *p.CurrentTask
		}
		if p.TaskCount != nil {
			a.TaskCount = *p.TaskCount
		}
		if p.CompletedCount != nil {
			a.CompletedCount = *p.CompletedCount
		}
		// Any touch counts as activity, even an empty patch.
		a.LastActivityTime = time.Now().UTC()
	})
}

func (s *service) Delete(ctx context.Context, id string) error {
	// Tasks referencing this agent are left as-is: agentId is a soft
	// reference and dangling ids are tolerated everywhere.
	a, err := s.agents.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.activity.Record(ctx, models.ActivityEntry{
		Action:  models.ActionAgentRemoved,
		AgentID: id,
		Details: a.Label,
	}); err != nil {
		return err
	}
	return s.agents.Delete(ctx, id)
}
