package models

import (
	"time"
)

// Agent status enum. Agents spawn as "active" (spawning implies work is
// starting, unlike a pre-registered idle worker).
const (
	AgentStatusIdle      = "idle"
	AgentStatusActive    = "active"
	AgentStatusCompleted = "completed"
	AgentStatusError     = "error"
)

type Agent struct {
	ID               string    `json:"id"`
	Label            string    `json:"label"`
	Status           string    `json:"status"`
	SpawnedTime      time.Time `json:"spawnedTime"`
	LastActivityTime time.Time `json:"lastActivityTime"`
	// CurrentTask is free text describing what the agent is doing now,
	// not a Task reference.
	CurrentTask    string `json:"currentTask,omitempty"`
	TaskCount      int    `json:"taskCount"`
	CompletedCount int    `json:"completedCount"`
}
