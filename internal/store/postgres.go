package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentdash/backend/internal/models"
)

// PostgresStore is the table-backed variant: updates and deletes target a
// single row by id, so concurrent operations on different ids never block
// each other and conflicting writes on the same id serialize on the row lock
// (last commit wins).
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL,
	status       TEXT NOT NULL,
	deadline     TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	agent_id     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agents (
	id                 TEXT PRIMARY KEY,
	label              TEXT NOT NULL,
	status             TEXT NOT NULL,
	spawned_time       TIMESTAMPTZ NOT NULL,
	last_activity_time TIMESTAMPTZ NOT NULL,
	current_task       TEXT NOT NULL DEFAULT '',
	task_count         INT NOT NULL DEFAULT 0,
	completed_count    INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS activity_log (
	seq       BIGSERIAL PRIMARY KEY,
	id        TEXT NOT NULL,
	action    TEXT NOT NULL,
	task_id   TEXT NOT NULL DEFAULT '',
	agent_id  TEXT NOT NULL DEFAULT '',
	ts        TIMESTAMPTZ NOT NULL,
	details   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dashboard_meta (
	key   TEXT PRIMARY KEY,
	value TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore applies the schema and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Tasks() TaskStore        { return &pgTaskStore{s.pool} }
func (s *PostgresStore) Agents() AgentStore      { return &pgAgentStore{s.pool} }
func (s *PostgresStore) Activity() ActivityStore { return &pgActivityStore{s.pool} }

// --- TaskStore ---

type pgTaskStore struct {
	pool *pgxpool.Pool
}

var _ TaskStore = (*pgTaskStore)(nil)

const taskColumns = "id, title, description, priority, status, deadline, created_at, completed_at, agent_id"

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.Deadline, &t.CreatedAt, &t.CompletedAt, &t.AgentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *pgTaskStore) List(ctx context.Context) ([]models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at, id")
}

func (r *pgTaskStore) ListByAgent(ctx context.Context, agentID string) ([]models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks WHERE agent_id = $1 ORDER BY created_at, id", agentID)
}

func (r *pgTaskStore) list(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.Deadline, &t.CreatedAt, &t.CompletedAt, &t.AgentID); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *pgTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id))
}

func (r *pgTaskStore) Insert(ctx context.Context, t *models.Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, priority, status, deadline, created_at, completed_at, agent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.Title, t.Description, t.Priority, t.Status, t.Deadline, t.CreatedAt, t.CompletedAt, t.AgentID)
	return err
}

// Update locks the row, applies the merge in memory, and writes the full row
// back in the same transaction.
func (r *pgTaskStore) Update(ctx context.Context, id string, apply func(*models.Task)) (*models.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	t, err := scanTask(tx.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, err
	}
	apply(t)
	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, priority = $4, status = $5, deadline = $6, completed_at = $7, agent_id = $8
		WHERE id = $1
	`, t.ID, t.Title, t.Description, t.Priority, t.Status, t.Deadline, t.CompletedAt, t.AgentID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgTaskStore) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- AgentStore ---

type pgAgentStore struct {
	pool *pgxpool.Pool
}

var _ AgentStore = (*pgAgentStore)(nil)

const agentColumns = "id, label, status, spawned_time, last_activity_time, current_task, task_count, completed_count"

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var a models.Agent
	err := row.Scan(&a.ID, &a.Label, &a.Status, &a.SpawnedTime, &a.LastActivityTime, &a.CurrentTask, &a.TaskCount, &a.CompletedCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgAgentStore) List(ctx context.Context) (map[string]models.Agent, time.Time, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+agentColumns+" FROM agents")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()
	out := make(map[string]models.Agent)
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Label, &a.Status, &a.SpawnedTime, &a.LastActivityTime, &a.CurrentTask, &a.TaskCount, &a.CompletedCount); err != nil {
			return nil, time.Time{}, err
		}
		out[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	var last time.Time
	err = r.pool.QueryRow(ctx, "SELECT value FROM dashboard_meta WHERE key = 'agents_last_updated'").Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, err
	}
	return out, last, nil
}

func (r *pgAgentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM agents").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *pgAgentStore) Get(ctx context.Context, id string) (*models.Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = $1", id))
}

func (r *pgAgentStore) Insert(ctx context.Context, a *models.Agent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `
		INSERT INTO agents (id, label, status, spawned_time, last_activity_time, current_task, task_count, completed_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Label, a.Status, a.SpawnedTime, a.LastActivityTime, a.CurrentTask, a.TaskCount, a.CompletedCount); err != nil {
		return err
	}
	if err := touchAgents(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgAgentStore) Update(ctx context.Context, id string, apply func(*models.Agent)) (*models.Agent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAgent(tx.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, err
	}
	apply(a)
	if _, err := tx.Exec(ctx, `
		UPDATE agents SET label = $2, status = $3, last_activity_time = $4, current_task = $5, task_count = $6, completed_count = $7
		WHERE id = $1
	`, a.ID, a.Label, a.Status, a.LastActivityTime, a.CurrentTask, a.TaskCount, a.CompletedCount); err != nil {
		return nil, err
	}
	if err := touchAgents(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *pgAgentStore) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx, "DELETE FROM agents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := touchAgents(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func touchAgents(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO dashboard_meta (key, value) VALUES ('agents_last_updated', now())
		ON CONFLICT (key) DO UPDATE SET value = now()
	`)
	return err
}

// --- ActivityStore ---

type pgActivityStore struct {
	pool *pgxpool.Pool
}

var _ ActivityStore = (*pgActivityStore)(nil)

func (r *pgActivityStore) Append(ctx context.Context, e *models.ActivityEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (id, action, task_id, agent_id, ts, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.Action, e.TaskID, e.AgentID, e.Timestamp, e.Details)
	return err
}

func (r *pgActivityStore) All(ctx context.Context) ([]models.ActivityEntry, error) {
	return r.list(ctx, "SELECT id, action, task_id, agent_id, ts, details FROM activity_log ORDER BY seq")
}

func (r *pgActivityStore) Recent(ctx context.Context, n int) ([]models.ActivityEntry, error) {
	query := "SELECT id, action, task_id, agent_id, ts, details FROM activity_log ORDER BY seq DESC"
	args := []any{}
	if n > 0 {
		query += " LIMIT $1"
		args = append(args, n)
	}
	return r.list(ctx, query, args...)
}

func (r *pgActivityStore) list(ctx context.Context, query string, args ...any) ([]models.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.ActivityEntry, 0)
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.TaskID, &e.AgentID, &e.Timestamp, &e.Details); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
