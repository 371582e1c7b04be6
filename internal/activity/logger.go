package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentdash/backend/internal/models"
	"github.com/agentdash/backend/internal/store"
)

// Logger appends immutable entries to the activity log. A failed append
// propagates to the caller with the same severity as the mutation that
// triggered it.
type Logger struct {
	store store.ActivityStore
}

func NewLogger(s store.ActivityStore) *Logger {
	return &Logger{store: s}
}

// Record assigns id and timestamp when absent and appends the entry.
func (l *Logger) Record(ctx context.Context, e models.ActivityEntry) error {
	if e.ID == "" {
		e.ID = "log-" + uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return l.store.Append(ctx, &e)
}

// History returns the whole log in append order, oldest first. This is the
// order the polling feed serializes, so existing entries never move.
func (l *Logger) History(ctx context.Context) ([]models.ActivityEntry, error) {
	return l.store.All(ctx)
}

// Recent returns the last n entries most-recent-first; n <= 0 returns all.
func (l *Logger) Recent(ctx context.Context, n int) ([]models.ActivityEntry, error) {
	return l.store.Recent(ctx, n)
}
