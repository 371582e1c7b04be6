package models

import (
	"time"
)

// Activity log action tags.
const (
	ActionTaskCreated   = "Task created"
	ActionStatusChanged = "Status changed"
	ActionTaskDeleted   = "Task deleted"
	ActionAgentSpawned  = "Agent spawned"
	ActionAgentRemoved  = "Agent removed"
)

// ActivityEntry is an immutable audit record. TaskID and AgentID are soft
// references that survive deletion of their subject.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	TaskID    string    `json:"taskId,omitempty"`
	AgentID   string    `json:"agentId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}
