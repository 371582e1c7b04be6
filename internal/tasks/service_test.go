package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/backend/internal/activity"
	"github.com/agentdash/backend/internal/models"
	"github.com/agentdash/backend/internal/store"
)

func newTestService(t *testing.T) (Service, *activity.Logger) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	logger := activity.NewLogger(fs.Activity())
	return NewService(fs.Tasks(), logger), logger
}

func TestCreateTaskDefaults(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Write report", Priority: models.TaskPriorityHigh})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskStatusQueued, task.Status)
	assert.Equal(t, models.TaskPriorityHigh, task.Priority)
	assert.Nil(t, task.CompletedAt)
	assert.False(t, task.CreatedAt.IsZero())

	log, err := logger.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, models.ActionTaskCreated, log[0].Action)
	assert.Equal(t, task.ID, log[0].TaskID)
	assert.Equal(t, "Write report", log[0].Details)
}

func TestCreateTaskDefaultPriorityLow(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.Create(context.Background(), CreateParams{Title: "No priority given"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPriorityLow, task.Priority)
}

func TestCreateTaskIDsUnique(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		task, err := svc.Create(ctx, CreateParams{Title: "dup check"})
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestCreateTaskEmptyTitle(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Title: "   "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	// A rejected create must not leave a log entry behind.
	log, err := logger.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestUpdateStatusToDone(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Finish me"})
	require.NoError(t, err)

	status := models.TaskStatusDone
	updated, err := svc.Update(ctx, task.ID, Patch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *updated.CompletedAt, 5*time.Second)

	log, err := logger.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, models.ActionStatusChanged, log[0].Action)
	assert.Equal(t, "queued → done", log[0].Details)
}

func TestUpdateSameStatusIsNoOp(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Twice done"})
	require.NoError(t, err)

	status := models.TaskStatusDone
	first, err := svc.Update(ctx, task.ID, Patch{Status: &status})
	require.NoError(t, err)
	before, err := logger.Recent(ctx, 0)
	require.NoError(t, err)

	second, err := svc.Update(ctx, task.ID, Patch{Status: &status})
	require.NoError(t, err)

	after, err := logger.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "no-op transition must not append a log entry")
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestReopeningClearsCompletedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Reopen me"})
	require.NoError(t, err)

	done := models.TaskStatusDone
	_, err = svc.Update(ctx, task.ID, Patch{Status: &done})
	require.NoError(t, err)

	reopened := models.TaskStatusInProgress
	updated, err := svc.Update(ctx, task.ID, Patch{Status: &reopened})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt, "completedAt must track status == done")
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{
		Title:       "Original title",
		Description: "original",
		Priority:    models.TaskPriorityMedium,
		AgentID:     "agent-1",
	})
	require.NoError(t, err)

	desc := "patched"
	updated, err := svc.Update(ctx, task.ID, Patch{Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, "patched", updated.Description)
	assert.Equal(t, "Original title", updated.Title)
	assert.Equal(t, models.TaskPriorityMedium, updated.Priority)
	assert.Equal(t, "agent-1", updated.AgentID)
	assert.Equal(t, models.TaskStatusQueued, updated.Status)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	title := "whatever"
	_, err := svc.Update(context.Background(), "missing", Patch{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAppendsLogThenRemoves(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID))

	feed, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, feed.Tasks)

	log, err := logger.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, models.ActionTaskDeleted, log[0].Action)
	assert.Equal(t, task.ID, log[0].TaskID)
}

func TestDeleteMissingIsNotFoundWithoutLogEntry(t *testing.T) {
	svc, logger := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateParams{Title: "Once"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, task.ID))

	before, err := logger.Recent(ctx, 0)
	require.NoError(t, err)

	err = svc.Delete(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	after, err := logger.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "repeated delete must not log twice")
}

func TestFeedLogInAppendOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{Title: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateParams{Title: "second"})
	require.NoError(t, err)

	status := models.TaskStatusDone
	_, err = svc.Update(ctx, second.ID, Patch{Status: &status})
	require.NoError(t, err)

	// The feed serializes the log oldest-first, exactly as stored; clients
	// take the tail for "most recent".
	feed, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, feed.ActivityLog, 3)
	assert.Equal(t, models.ActionTaskCreated, feed.ActivityLog[0].Action)
	assert.Equal(t, first.ID, feed.ActivityLog[0].TaskID)
	assert.Equal(t, models.ActionTaskCreated, feed.ActivityLog[1].Action)
	assert.Equal(t, second.ID, feed.ActivityLog[1].TaskID)
	assert.Equal(t, models.ActionStatusChanged, feed.ActivityLog[2].Action)
	assert.Equal(t, second.ID, feed.ActivityLog[2].TaskID)
}

func TestListFilteredByAgent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Title: "mine", AgentID: "agent-1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Title: "theirs", AgentID: "agent-2"})
	require.NoError(t, err)

	feed, err := svc.List(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, feed.Tasks, 1)
	assert.Equal(t, "mine", feed.Tasks[0].Title)
	// The activity log stays global under a filtered list.
	assert.Len(t, feed.ActivityLog, 2)

	empty, err := svc.List(ctx, "agent-without-tasks")
	require.NoError(t, err)
	assert.Empty(t, empty.Tasks)
	assert.Len(t, empty.ActivityLog, 2)
}
