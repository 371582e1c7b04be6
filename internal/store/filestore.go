package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentdash/backend/internal/models"
)

// FileStore keeps each collection in a flat JSON document rewritten wholesale
// on every mutation: tasks.json holds the tasks plus the activity log (and a
// per-agent task index), agents.json holds the agent map. One mutex per
// document is held for the full read-modify-write span, which is the only
// thing that makes whole-file rewrites safe inside a single process.
type FileStore struct {
	tasksPath  string
	agentsPath string

	tasksMu  sync.Mutex // guards tasks.json (tasks + activity log)
	agentsMu sync.Mutex // guards agents.json
}

type agentTaskIndex struct {
	Tasks []string `json:"tasks"`
}

type taskDocument struct {
	Tasks       []models.Task             `json:"tasks"`
	Agents      map[string]agentTaskIndex `json:"agents,omitempty"`
	ActivityLog []models.ActivityEntry    `json:"activityLog"`
}

type agentDocument struct {
	Agents      map[string]models.Agent `json:"agents"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return &FileStore{
		tasksPath:  filepath.Join(dir, "tasks.json"),
		agentsPath: filepath.Join(dir, "agents.json"),
	}, nil
}

// Tasks returns the task collection view.
func (s *FileStore) Tasks() TaskStore { return &fileTaskStore{s} }

// Agents returns the agent collection view.
func (s *FileStore) Agents() AgentStore { return &fileAgentStore{s} }

// Activity returns the activity log view.
func (s *FileStore) Activity() ActivityStore { return &fileActivityStore{s} }

// --- document I/O ---

func (s *FileStore) readTaskDoc() (*taskDocument, error) {
	doc := &taskDocument{
		Tasks:       []models.Task{},
		ActivityLog: []models.ActivityEntry{},
	}
	b, err := os.ReadFile(s.tasksPath)
	if errors.Is(err, fs.ErrNotExist) {
		// A missing file is an empty initial state.
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.tasksPath, err)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.tasksPath, err)
	}
	if doc.Tasks == nil {
		doc.Tasks = []models.Task{}
	}
	if doc.ActivityLog == nil {
		doc.ActivityLog = []models.ActivityEntry{}
	}
	return doc, nil
}

func (s *FileStore) readAgentDoc() (*agentDocument, error) {
	doc := &agentDocument{Agents: map[string]models.Agent{}}
	b, err := os.ReadFile(s.agentsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.agentsPath, err)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.agentsPath, err)
	}
	if doc.Agents == nil {
		doc.Agents = map[string]models.Agent{}
	}
	return doc, nil
}

// writeDoc marshals v and swaps it in with a rename so the document on disk
// is always either the old state or the new one, never a torn write.
func writeDoc(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// --- TaskStore ---

type fileTaskStore struct {
	fs *FileStore
}

var _ TaskStore = (*fileTaskStore)(nil)

func (r *fileTaskStore) List(_ context.Context) ([]models.Task, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, len(doc.Tasks))
	copy(out, doc.Tasks)
	return out, nil
}

func (r *fileTaskStore) ListByAgent(_ context.Context, agentID string) ([]models.Task, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0)
	for _, t := range doc.Tasks {
		if t.AgentID == agentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fileTaskStore) Get(_ context.Context, id string) (*models.Task, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			t := doc.Tasks[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileTaskStore) Insert(_ context.Context, t *models.Task) error {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return err
	}
	doc.Tasks = append(doc.Tasks, *t)
	if t.AgentID != "" {
		if doc.Agents == nil {
			doc.Agents = map[string]agentTaskIndex{}
		}
		idx := doc.Agents[t.AgentID]
		idx.Tasks = append(idx.Tasks, t.ID)
		doc.Agents[t.AgentID] = idx
	}
	return writeDoc(r.fs.tasksPath, doc)
}

func (r *fileTaskStore) Update(_ context.Context, id string, apply func(*models.Task)) (*models.Task, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	for i := range doc.Tasks {
		if doc.Tasks[i].ID != id {
			continue
		}
		apply(&doc.Tasks[i])
		if err := writeDoc(r.fs.tasksPath, doc); err != nil {
			return nil, err
		}
		t := doc.Tasks[i]
		return &t, nil
	}
	return nil, ErrNotFound
}

func (r *fileTaskStore) Delete(_ context.Context, id string) error {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return err
	}
	kept := make([]models.Task, 0, len(doc.Tasks))
	found := false
	for _, t := range doc.Tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrNotFound
	}
	doc.Tasks = kept
	return writeDoc(r.fs.tasksPath, doc)
}

// --- AgentStore ---

type fileAgentStore struct {
	fs *FileStore
}

var _ AgentStore = (*fileAgentStore)(nil)

func (r *fileAgentStore) List(_ context.Context) (map[string]models.Agent, time.Time, error) {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return nil, time.Time{}, err
	}
	out := make(map[string]models.Agent, len(doc.Agents))
	for id, a := range doc.Agents {
		out[id] = a
	}
	return out, doc.LastUpdated, nil
}

func (r *fileAgentStore) Count(_ context.Context) (int, error) {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return 0, err
	}
	return len(doc.Agents), nil
}

func (r *fileAgentStore) Get(_ context.Context, id string) (*models.Agent, error) {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return nil, err
	}
	a, ok := doc.Agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *fileAgentStore) Insert(_ context.Context, a *models.Agent) error {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return err
	}
	doc.Agents[a.ID] = *a
	doc.LastUpdated = time.Now().UTC()
	return writeDoc(r.fs.agentsPath, doc)
}

func (r *fileAgentStore) Update(_ context.Context, id string, apply func(*models.Agent)) (*models.Agent, error) {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return nil, err
	}
	a, ok := doc.Agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	apply(&a)
	doc.Agents[id] = a
	doc.LastUpdated = time.Now().UTC()
	if err := writeDoc(r.fs.agentsPath, doc); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *fileAgentStore) Delete(_ context.Context, id string) error {
	r.fs.agentsMu.Lock()
	defer r.fs.agentsMu.Unlock()
	doc, err := r.fs.readAgentDoc()
	if err != nil {
		return err
	}
	if _, ok := doc.Agents[id]; !ok {
		return ErrNotFound
	}
	delete(doc.Agents, id)
	doc.LastUpdated = time.Now().UTC()
	return writeDoc(r.fs.agentsPath, doc)
}

// --- ActivityStore ---

type fileActivityStore struct {
	fs *FileStore
}

var _ ActivityStore = (*fileActivityStore)(nil)

func (r *fileActivityStore) Append(_ context.Context, e *models.ActivityEntry) error {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return err
	}
	doc.ActivityLog = append(doc.ActivityLog, *e)
	return writeDoc(r.fs.tasksPath, doc)
}

func (r *fileActivityStore) All(_ context.Context) ([]models.ActivityEntry, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	out := make([]models.ActivityEntry, len(doc.ActivityLog))
	copy(out, doc.ActivityLog)
	return out, nil
}

func (r *fileActivityStore) Recent(_ context.Context, n int) ([]models.ActivityEntry, error) {
	r.fs.tasksMu.Lock()
	defer r.fs.tasksMu.Unlock()
	doc, err := r.fs.readTaskDoc()
	if err != nil {
		return nil, err
	}
	log := doc.ActivityLog
	if n > 0 && n < len(log) {
		log = log[len(log)-n:]
	}
	out := make([]models.ActivityEntry, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, log[i])
	}
	return out, nil
}
