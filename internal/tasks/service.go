package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdash/backend/internal/activity"
	"github.com/agentdash/backend/internal/models"
	"github.com/agentdash/backend/internal/store"
)

// ErrTitleRequired is returned when a create request has an empty title.
var ErrTitleRequired = errors.New("task title is required")

type CreateParams struct {
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
	AgentID     string
}

// Patch is a shallow-merge update: nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	AgentID     *string    `json:"agentId"`
}

// Feed is the document shape the polling UI reads: the (optionally filtered)
// tasks plus the global activity log.
type Feed struct {
	Tasks       []models.Task          `json:"tasks"`
	ActivityLog []models.ActivityEntry `json:"activityLog"`
}

type Service interface {
	List(ctx context.Context, agentID string) (*Feed, error)
	Create(ctx context.Context, p CreateParams) (*models.Task, error)
	Update(ctx context.Context, id string, p Patch) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	tasks    store.TaskStore
	activity *activity.Logger
}

func NewService(tasks store.TaskStore, logger *activity.Logger) *service {
	return &service{tasks: tasks, activity: logger}
}

var _ Service = (*service)(nil)

func (s *service) List(ctx context.Context, agentID string) (*Feed, error) {
	var (
		list []models.Task
		err  error
	)
	if agentID != "" {
		list, err = s.tasks.ListByAgent(ctx, agentID)
	} else {
		list, err = s.tasks.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	// The log is global even when the task list is filtered, and ships in
	// append order: the feed document grows at the tail like the stored log.
	log, err := s.activity.History(ctx)
	if err != nil {
		return nil, err
	}
	return &Feed{Tasks: list, ActivityLog: log}, nil
}

func (s *service) Create(ctx context.Context, p CreateParams) (*models.Task, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, ErrTitleRequired
	}
	priority := p.Priority
	if priority == "" {
		priority = models.TaskPriorityLow
	}
	t := &models.Task{
		ID:          uuid.New().String(),
		Title:       p.Title,
		Description: p.Description,
		Priority:    priority,
		Status:      models.TaskStatusQueued,
		Deadline:    p.Deadline,
		CreatedAt:   time.Now().UTC(),
		AgentID:     p.AgentID,
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, err
	}
	if err := s.activity.Record(ctx, models.ActivityEntry{
		Action:  models.ActionTaskCreated,
		TaskID:  t.ID,
		AgentID: t.AgentID,
		Details: t.Title,
	}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Update(ctx context.Context, id string, p Patch) (*models.Task, error) {
	var oldStatus, newStatus string
	t, err := s.tasks.Update(ctx, id, func(t *models.Task) {
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Priority != nil {
			t.Priority = *p.Priority
		}
		if p.Deadline != nil {
			t.Deadline = p.Deadline
		}
		if p.AgentID != nil {
			t.AgentID = *p.AgentID
		}
		if p.Status != nil && *p.Status != t.Status {
			oldStatus, newStatus = t.Status, *p.Status
			t.Status = newStatus
			if newStatus == models.TaskStatusDone {
				now := time.Now().UTC()
				t.CompletedAt = &now
			} else {
				// Reopening clears the completion time so status and
				// completedAt never disagree.
				t.CompletedAt = nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	// A patch carrying the current status is a no-op transition: no entry.
	if newStatus != "" {
		if err := s.activity.Record(ctx, models.ActivityEntry{
			Action:  models.ActionStatusChanged,
			TaskID:  id,
			Details: fmt.Sprintf("%s → %s", oldStatus, newStatus),
		}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	// The terminal log entry is written before the record goes away; a
	// missing id short-circuits so repeated deletes never log twice.
	if _, err := s.tasks.Get(ctx, id); err != nil {
		return err
	}
	if err := s.activity.Record(ctx, models.ActivityEntry{
		Action:  models.ActionTaskDeleted,
		TaskID:  id,
		Details: "Task removed",
	}); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}
