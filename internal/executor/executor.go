// Package executor runs agent processes for tasks: drafting a spec,
// executing plan subtasks phase by phase, and the optional QA pass.
// One Manager owns all live executions for a project and is the single
// writer of each task's plan file while a run is active.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/config"
	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/store"
)

// Notify receives human-readable progress messages for a task.
type Notify func(specID, message string)

// Manager tracks running executions per task.
type Manager struct {
	projectDir string
	dataDir    string // the .autoclaude directory
	cfg        *config.Config
	events     *store.Store
	factory    agent.Factory
	notify     Notify

	mu      sync.Mutex
	running map[string]*execution
}

type execution struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates an execution manager. factory may be nil, in which
// case agents run as CLI subprocesses; notify may be nil.
func NewManager(projectDir, dataDir string, cfg *config.Config, events *store.Store, factory agent.Factory, notify Notify) *Manager {
	if factory == nil {
		factory = agent.NewCLIRunner
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Manager{
		projectDir: projectDir,
		dataDir:    dataDir,
		cfg:        cfg,
		events:     events,
		factory:    factory,
		notify:     notify,
		running:    make(map[string]*execution),
	}
}

// IsRunning reports whether an execution is live for the task.
func (m *Manager) IsRunning(specID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[specID]
	return ok
}

// Kill cancels a running execution without waiting for it to unwind.
// The plan file is left exactly as the run last wrote it; recovery
// repairs whatever the interrupted run left behind.
func (m *Manager) Kill(specID string) {
	m.mu.Lock()
	exec, ok := m.running[specID]
	m.mu.Unlock()
	if ok {
		exec.cancel()
	}
}

// Wait blocks until the task's execution finishes. Returns immediately
// when nothing is running.
func (m *Manager) Wait(specID string) {
	m.mu.Lock()
	exec, ok := m.running[specID]
	m.mu.Unlock()
	if ok {
		<-exec.done
	}
}

// begin registers an execution slot for the task. Returns an error when
// one is already live.
func (m *Manager) begin(specID string) (*execution, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.running[specID]; ok {
		return nil, nil, fmt.Errorf("task %s is already running", specID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	exec := &execution{cancel: cancel, done: make(chan struct{})}
	m.running[specID] = exec
	return exec, ctx, nil
}

func (m *Manager) finish(specID string, exec *execution) {
	m.mu.Lock()
	delete(m.running, specID)
	m.mu.Unlock()
	exec.cancel()
	close(exec.done)
}

// specDir returns the directory holding the task's files.
func (m *Manager) specDir(specID string) string {
	return filepath.Join(m.dataDir, "specs", specID)
}

// runsDir returns the directory for run artifacts, creating it.
func (m *Manager) runsDir(specID string) string {
	dir := filepath.Join(m.dataDir, "runs", specID)
	os.MkdirAll(dir, 0755)
	return dir
}

// saveArtifact writes one agent output under the task's runs directory.
func (m *Manager) saveArtifact(specID, runID, stage, output string) {
	path := filepath.Join(m.runsDir(specID), fmt.Sprintf("%s-%s.md", runID, stage))
	os.WriteFile(path, []byte(output), 0644)
}

// taskTitle resolves the display title from requirements.json, falling
// back to the directory name.
func (m *Manager) taskTitle(specID string) (title, description string) {
	req := specdir.LoadRequirements(m.specDir(specID))
	if req != nil && req.Title != "" {
		return req.Title, req.Description
	}
	return specdir.Title(specID), ""
}

// savePlan persists the plan document for a task.
func (m *Manager) savePlan(specID string, doc *plan.Document) error {
	return plan.Save(specdir.PlanPath(m.specDir(specID)), doc)
}
