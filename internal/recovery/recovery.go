// Package recovery repairs tasks whose plan claims an active process
// that no longer exists: it resets interrupted subtasks, rewrites the
// stored status from what the subtasks actually show, and optionally
// relaunches the agent.
package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/autoclaude/autoclaude/internal/git"
	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/autoclaude/autoclaude/internal/store"
)

// ProcessManager is the slice of the executor recovery needs.
type ProcessManager interface {
	IsRunning(specID string) bool
	StartSpecCreation(specID string) error
	StartTaskExecution(specID string) error
}

// RepoChecker reports whether agent runs have a usable repository.
type RepoChecker interface {
	Status() git.StatusInfo
}

// Unwatcher drops a file-watch subscription. The watcher satisfies it.
type Unwatcher interface {
	Unwatch(specID string)
}

// Recorder appends to the event log. The store satisfies it.
type Recorder interface {
	AddEvent(specID, runID, eventType, content string)
}

// Notify reports the final status of a recovered task to observers.
type Notify func(specID string, st status.Status)

// Options tune one recovery call.
type Options struct {
	// TargetStatus overrides the status derived from the subtasks.
	TargetStatus status.Status
	// AutoRestart relaunches the agent after a successful reset.
	AutoRestart bool
}

// Result is the outcome of one recovery attempt.
type Result struct {
	TaskID        string
	Recovered     bool
	NewStatus     status.Status
	ResetSubtasks int
	AutoRestarted bool
	Message       string
}

// Engine performs recovery. All collaborators are injected; nil ones
// are skipped.
type Engine struct {
	dataDir string // the .autoclaude directory
	proc    ProcessManager
	repo    RepoChecker
	authOK  func() bool // agent credential check
	watch   Unwatcher
	events  Recorder
	notify  Notify
}

// NewEngine builds a recovery engine rooted at the project's data
// directory.
func NewEngine(dataDir string, proc ProcessManager, repo RepoChecker, authOK func() bool, watch Unwatcher, events Recorder, notify Notify) *Engine {
	if notify == nil {
		notify = func(string, status.Status) {}
	}
	return &Engine{
		dataDir: dataDir,
		proc:    proc,
		repo:    repo,
		authOK:  authOK,
		watch:   watch,
		events:  events,
		notify:  notify,
	}
}

func (e *Engine) specDir(specID string) string {
	return filepath.Join(e.dataDir, "specs", specID)
}

// Recover repairs one task. Recovery never kills a live process: a
// task with a running execution is refused and left alone.
func (e *Engine) Recover(specID string, opts Options) Result {
	res := Result{TaskID: specID}

	if e.proc != nil && e.proc.IsRunning(specID) {
		res.Message = "a process is still running for this task"
		return res
	}

	dir := e.specDir(specID)
	if _, err := os.Stat(dir); err != nil {
		res.Message = "task not found: " + specID
		return res
	}

	planPath := specdir.PlanPath(dir)
	doc, _ := plan.Load(planPath)
	if doc == nil {
		doc = plan.New()
	}
	sum := plan.Aggregate(doc)

	newStatus := opts.TargetStatus
	if newStatus == "" {
		switch {
		case sum.AllCompleted():
			newStatus = status.HumanReview
		case sum.Completed > 0:
			newStatus = status.InProgress
		default:
			newStatus = status.Backlog
		}
	}

	note := fmt.Sprintf("recovered at %s", time.Now().UTC().Format(time.RFC3339))

	// A fully finished task is not stuck, just unreviewed. Park it in
	// human review without touching any subtask.
	if sum.AllCompleted() {
		doc.SetStatus(string(newStatus))
		doc.AppendRecoveryNote(note)
		res.Message = e.persist(planPath, doc)
		e.unwatch(specID)
		e.record(specID, "all subtasks completed, no reset needed")
		res.Recovered = true
		res.NewStatus = newStatus
		e.notify(specID, newStatus)
		return res
	}

	res.ResetSubtasks = plan.ResetStuck(doc)
	doc.SetStatus(string(newStatus))
	doc.AppendRecoveryNote(note)
	res.Message = e.persist(planPath, doc)

	e.unwatch(specID)
	e.record(specID, fmt.Sprintf("reset %d subtasks, status %s", res.ResetSubtasks, newStatus))

	res.Recovered = true
	res.NewStatus = newStatus

	if opts.AutoRestart {
		e.restart(specID, planPath, doc, &res)
	}

	e.notify(specID, res.NewStatus)
	return res
}

// restart relaunches the agent after a reset. A restart that cannot
// proceed leaves the recovery itself successful and explains why in
// the result message.
func (e *Engine) restart(specID, planPath string, doc *plan.Document, res *Result) {
	if e.proc == nil {
		res.Message = "recovered but not restarted: no process launcher"
		return
	}
	if e.repo != nil {
		info := e.repo.Status()
		if !info.IsGitRepo {
			res.Message = "recovered but not restarted: not a git repository"
			return
		}
		if !info.HasCommits {
			res.Message = "recovered but not restarted: repository has no commits"
			return
		}
	}
	if e.authOK != nil && !e.authOK() {
		res.Message = "recovered but not restarted: agent credentials unavailable"
		return
	}

	doc.SetStatus(string(status.InProgress))
	if msg := e.persist(planPath, doc); msg != "" {
		res.Message = msg
	}
	res.NewStatus = status.InProgress

	var err error
	if specdir.HasSpec(e.specDir(specID)) {
		err = e.proc.StartTaskExecution(specID)
	} else {
		err = e.proc.StartSpecCreation(specID)
	}
	if err != nil {
		res.Message = "recovered but restart failed: " + err.Error()
		return
	}
	res.AutoRestarted = true
	e.record(specID, "auto-restarted")
}

// persist writes the plan, downgrading failures to a message. Losing a
// recovery write is less harmful than failing the whole attempt; the
// in-memory state carries the session through.
func (e *Engine) persist(path string, doc *plan.Document) string {
	if err := plan.Save(path, doc); err != nil {
		return "recovered in memory, plan write failed: " + err.Error()
	}
	return ""
}

func (e *Engine) unwatch(specID string) {
	if e.watch != nil {
		e.watch.Unwatch(specID)
	}
}

func (e *Engine) record(specID, content string) {
	if e.events != nil {
		e.events.AddEvent(specID, "", store.EventRecovered, content)
	}
}
