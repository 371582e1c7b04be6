package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentdash/backend/internal/models"
)

// ErrNotFound is returned when an operation targets an id absent from its
// collection. It is a recoverable outcome, never a crash.
var ErrNotFound = errors.New("record not found")

// TaskStore is the task collection contract. Update runs apply inside the
// store's critical section, so the read-modify-write is atomic and readers
// never observe a partially merged record.
type TaskStore interface {
	List(ctx context.Context) ([]models.Task, error)
	ListByAgent(ctx context.Context, agentID string) ([]models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Insert(ctx context.Context, t *models.Task) error
	Update(ctx context.Context, id string, apply func(*models.Task)) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// AgentStore is the agent collection contract. List returns the collection
// keyed by id plus the lastUpdated watermark the polling UI reads.
type AgentStore interface {
	List(ctx context.Context) (map[string]models.Agent, time.Time, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (*models.Agent, error)
	Insert(ctx context.Context, a *models.Agent) error
	Update(ctx context.Context, id string, apply func(*models.Agent)) (*models.Agent, error)
	Delete(ctx context.Context, id string) error
}

// ActivityStore is the append-only log contract. All returns the whole log
// in append order, oldest first; Recent returns the last n entries
// most-recent-first (n <= 0 returns the whole log).
type ActivityStore interface {
	Append(ctx context.Context, e *models.ActivityEntry) error
	All(ctx context.Context) ([]models.ActivityEntry, error)
	Recent(ctx context.Context, n int) ([]models.ActivityEntry, error)
}
