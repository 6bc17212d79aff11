// Package tui renders the interactive task board: five status columns,
// a task detail panel, and one-key recovery for stuck tasks.
package tui

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/autoclaude/autoclaude/internal/project"
	"github.com/autoclaude/autoclaude/internal/recovery"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/autoclaude/autoclaude/internal/store"
	"github.com/autoclaude/autoclaude/internal/watcher"
)

// screen represents which panel the TUI is showing.
type screen int

const (
	screenBoard  screen = iota // status columns (main)
	screenDetail               // one task's subtasks and events
)

const numColumns = 5

var columnStatuses = [numColumns]status.Status{
	status.Backlog,
	status.InProgress,
	status.AIReview,
	status.HumanReview,
	status.Done,
}

var columnLabels = [numColumns]string{
	"BACKLOG",
	"IN PROGRESS",
	"AI REVIEW",
	"HUMAN REVIEW",
	"DONE",
}

// Model is the top-level bubbletea model.
type Model struct {
	tasks  *project.Store
	events *store.Store
	engine *recovery.Engine
	watch  *watcher.Watcher

	width  int
	height int

	currentScreen screen

	// Board state.
	columns   [numColumns][]*project.Task
	cursorCol int
	cursorRow int
	all       []*project.Task

	// Detail state.
	selected       *project.Task
	selectedLog    []store.Event
	detailViewport viewport.Model

	statusMsg   string
	statusMsgAt time.Time
	quitting    bool
	refreshing  bool
}

// New creates the board model. watch may be nil; without it the board
// refreshes only on the periodic tick.
func New(tasks *project.Store, events *store.Store, engine *recovery.Engine, watch *watcher.Watcher) Model {
	return Model{
		tasks:          tasks,
		events:         events,
		engine:         engine,
		watch:          watch,
		detailViewport: viewport.New(80, 20),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshTasks(), tickCmd()}
	if m.watch != nil {
		cmds = append(cmds, m.waitForFileChange())
	}
	return tea.Batch(cmds...)
}

type tasksRefreshedMsg struct {
	tasks []*project.Task
	err   error
}

type taskLogMsg struct {
	events []store.Event
}

type recoveredMsg struct {
	result recovery.Result
}

type fileChangedMsg struct{}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.tasks.List(false)
		return tasksRefreshedMsg{tasks: tasks, err: err}
	}
}

func (m Model) loadTaskLog(specID string) tea.Cmd {
	return func() tea.Msg {
		events, _ := m.events.Events(specID)
		return taskLogMsg{events: events}
	}
}

func (m Model) recoverTask(specID string) tea.Cmd {
	return func() tea.Msg {
		return recoveredMsg{result: m.engine.Recover(specID, recovery.Options{})}
	}
}

// waitForFileChange blocks on the watcher channel and re-arms itself
// after every update.
func (m Model) waitForFileChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.watch.Updates(); !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

// rewatch subscribes every known task's spec directory.
func (m Model) rewatch() {
	if m.watch == nil {
		return
	}
	root := m.tasks.SpecsRoot()
	for _, t := range m.all {
		m.watch.Watch(t.ID, filepath.Join(root, t.ID))
	}
}

func (m *Model) rebuildColumns() {
	for i := range m.columns {
		m.columns[i] = nil
	}
	for _, t := range m.all {
		for i, st := range columnStatuses {
			if t.Status == st {
				m.columns[i] = append(m.columns[i], t)
				break
			}
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.cursorCol >= numColumns {
		m.cursorCol = numColumns - 1
	}
	col := m.columns[m.cursorCol]
	if m.cursorRow >= len(col) {
		m.cursorRow = len(col) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
}

func (m *Model) selectedFromBoard() *project.Task {
	col := m.columns[m.cursorCol]
	if m.cursorRow < len(col) {
		return col[m.cursorRow]
	}
	return nil
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusMsgAt = time.Now()
}
