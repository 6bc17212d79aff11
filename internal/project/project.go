// Package project assembles the task list a UI or CLI works with. It
// reads each task's spec directory, resolves the effective status, and
// exposes the few mutations a human performs directly: creating tasks,
// moving them between columns, and archiving them.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/status"
)

// Task locations.
const (
	LocationMain     = "main"
	LocationWorktree = "worktree"
)

// Task is the resolved projection of one spec directory.
type Task struct {
	ID           string
	Title        string
	Description  string
	Status       status.Status
	ReviewReason status.Reason
	Subtasks     []*plan.Subtask
	Metadata     *specdir.Metadata
	Location     string
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store reads and mutates tasks under one project's data directory.
type Store struct {
	dataDir string // the .autoclaude directory
}

// NewStore creates a task store rooted at the data directory.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// SpecsRoot returns the directory holding all task spec directories.
func (s *Store) SpecsRoot() string {
	return filepath.Join(s.dataDir, "specs")
}

func (s *Store) specDir(specID string) string {
	return filepath.Join(s.SpecsRoot(), specID)
}

// Create allocates the next numbered spec directory and seeds its
// requirements and metadata. Returns the new task ID.
func (s *Store) Create(title, description, source string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("task title is required")
	}
	if source == "" {
		source = specdir.SourceManual
	}

	dir, err := specdir.Allocate(s.SpecsRoot(), title)
	if err != nil {
		return "", err
	}
	specID := filepath.Base(dir)

	if err := specdir.SaveRequirements(dir, &specdir.Requirements{Title: title, Description: description}); err != nil {
		return "", err
	}
	if err := specdir.SaveMetadata(dir, &specdir.Metadata{SourceType: source}); err != nil {
		return "", err
	}
	return specID, nil
}

// List loads every task, sorted by ID. Archived tasks are skipped
// unless includeArchived is set.
func (s *Store) List(includeArchived bool) ([]*Task, error) {
	entries, err := os.ReadDir(s.SpecsRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tasks []*Task
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		task, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		if task.Archived && !includeArchived {
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Load builds the projection for one task.
func (s *Store) Load(specID string) (*Task, error) {
	dir := s.specDir(specID)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("unknown task %s: %w", specID, err)
	}

	meta := specdir.LoadMetadata(dir)
	doc, _ := plan.Load(specdir.PlanPath(dir))

	st, reason := status.Resolve(status.Input{
		Plan:     doc,
		QAReport: specdir.ReadQAReport(dir),
		Manual:   meta.SourceType == specdir.SourceManual,
	})

	task := &Task{
		ID:           specID,
		Title:        specdir.Title(specID),
		Status:       st,
		ReviewReason: reason,
		Metadata:     meta,
		Archived:     meta.Archived(),
		Location:     s.location(specID),
		CreatedAt:    info.ModTime(),
		UpdatedAt:    info.ModTime(),
	}

	if req := specdir.LoadRequirements(dir); req != nil {
		if req.Title != "" {
			task.Title = req.Title
		}
		task.Description = req.Description
	}

	if doc != nil {
		task.Subtasks = doc.AllSubtasks()
		if doc.CreatedAt != nil {
			task.CreatedAt = *doc.CreatedAt
		}
		if doc.UpdatedAt != nil {
			task.UpdatedAt = *doc.UpdatedAt
		}
	}

	return task, nil
}

// SetStatus moves a task to an explicit column. Done is terminal: a
// task marked done stays done until the directory itself is removed.
func (s *Store) SetStatus(specID string, target status.Status) error {
	if !target.Valid() {
		return fmt.Errorf("invalid status %q", target)
	}

	task, err := s.Load(specID)
	if err != nil {
		return err
	}
	if task.Status == status.Done && target != status.Done {
		return fmt.Errorf("task %s is done; done is terminal", specID)
	}

	dir := s.specDir(specID)
	doc, _ := plan.Load(specdir.PlanPath(dir))
	if doc == nil {
		doc = plan.New()
	}
	doc.SetStatus(string(target))
	return plan.Save(specdir.PlanPath(dir), doc)
}

// Archive stamps the task's metadata; archived tasks disappear from
// the default listing but keep every file on disk.
func (s *Store) Archive(specID string) error {
	dir := s.specDir(specID)
	meta := specdir.LoadMetadata(dir)
	if meta.Archived() {
		return nil
	}
	now := time.Now().UTC()
	meta.ArchivedAt = &now
	return specdir.SaveMetadata(dir, meta)
}

// Unarchive clears the archive stamp.
func (s *Store) Unarchive(specID string) error {
	dir := s.specDir(specID)
	meta := specdir.LoadMetadata(dir)
	if !meta.Archived() {
		return nil
	}
	meta.ArchivedAt = nil
	return specdir.SaveMetadata(dir, meta)
}

// location reports whether the task has an isolated worktree checkout.
func (s *Store) location(specID string) string {
	wt := filepath.Join(s.dataDir, "worktrees", specID)
	if info, err := os.Stat(wt); err == nil && info.IsDir() {
		return LocationWorktree
	}
	return LocationMain
}
