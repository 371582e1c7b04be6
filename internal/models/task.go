package models

import (
	"time"
)

// Task priority and status enums. Status always starts at "queued";
// "done" is the only status that carries a completion timestamp.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"

	TaskStatusQueued     = "queued"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
	TaskStatusBlocked    = "blocked"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
	// AgentID is a soft reference: lookup key only, never checked against
	// the agents collection. Deleting the agent leaves it dangling.
	AgentID string `json:"agentId,omitempty"`
}
