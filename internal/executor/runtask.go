package executor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/git"
	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/prompt"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/store"
)

// maxEvidence caps the output excerpt stored per subtask; full output
// lives in the runs directory.
const maxEvidence = 2000

// StartTaskExecution launches plan execution for a task: each phase's
// subtasks run in order (or concurrently when parallel execution is
// configured), then the optional QA pass. The run is asynchronous; use
// Wait to block.
func (m *Manager) StartTaskExecution(specID string) error {
	dir := m.specDir(specID)
	doc, err := plan.Load(specdir.PlanPath(dir))
	if err != nil {
		return err
	}
	if doc == nil || len(doc.AllSubtasks()) == 0 {
		return fmt.Errorf("task %s has no implementation plan", specID)
	}

	exec, ctx, err := m.begin(specID)
	if err != nil {
		return err
	}

	doc.SetStatus("coding")
	if err := m.savePlan(specID, doc); err != nil {
		m.finish(specID, exec)
		return err
	}

	go func() {
		defer m.finish(specID, exec)
		m.runTask(ctx, specID, doc)
	}()
	return nil
}

// taskRun carries the shared state of one execution. The plan document
// is mutated by concurrent subtask workers, so every touch goes through
// the mutex.
type taskRun struct {
	m        *Manager
	specID   string
	runID    string
	doc      *plan.Document
	specText string
	workDir  string
	runner   agent.Runner

	mu sync.Mutex
}

func (m *Manager) runTask(ctx context.Context, specID string, doc *plan.Document) {
	runID := uuid.NewString()
	m.events.AddEvent(specID, runID, store.EventRunStarted, "task execution")

	specText := ""
	if data, err := os.ReadFile(specdir.SpecPath(m.specDir(specID))); err == nil {
		specText = string(data)
	}

	r := &taskRun{
		m:        m,
		specID:   specID,
		runID:    runID,
		doc:      doc,
		specText: specText,
		workDir:  m.resolveWorkDir(specID),
		runner:   m.factory(m.cfg.Agent),
	}

	failed := r.runPhases(ctx)

	if ctx.Err() != nil {
		// Killed. Leave the plan as the run last wrote it; recovery
		// resets the interrupted subtasks.
		m.events.AddEvent(specID, runID, store.EventRunFinished, "killed")
		return
	}

	if failed {
		r.setStatus("")
		m.events.AddEvent(specID, runID, store.EventRunFinished, "subtask failures")
		m.notify(specID, "execution stopped on failed subtasks")
		return
	}

	r.commitWork()

	if m.cfg.Reviewer != nil {
		r.runQA(ctx)
		return
	}

	// No reviewer configured: nothing to wait for in AI review.
	r.setStatus("human_review")
	m.events.AddEvent(specID, runID, store.EventRunFinished, "all subtasks completed")
	m.notify(specID, "all subtasks completed, ready for review")
}

// runPhases executes every unfinished subtask phase by phase. Phases are
// strictly ordered; subtasks inside a phase may run concurrently.
// Returns true when any subtask failed.
func (r *taskRun) runPhases(ctx context.Context) bool {
	workers := 1
	if r.m.cfg.Defaults.Parallel {
		workers = r.m.cfg.Defaults.EffectiveWorkers()
	}

	anyFailed := false
	for _, ph := range r.doc.Phases {
		if ph == nil {
			continue
		}

		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		var phaseFailed bool
		var mu sync.Mutex

		for _, sub := range ph.Items() {
			if sub == nil || sub.Status == plan.SubtaskCompleted {
				continue
			}
			if ctx.Err() != nil {
				break
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(st *plan.Subtask) {
				defer wg.Done()
				defer func() { <-sem }()
				if !r.runSubtask(ctx, st) {
					mu.Lock()
					phaseFailed = true
					mu.Unlock()
				}
			}(sub)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return anyFailed
		}
		if phaseFailed {
			// Later phases depend on this one; stop here.
			return true
		}
	}
	return anyFailed
}

// runSubtask executes one subtask and records the transition either
// way. Returns false on failure.
func (r *taskRun) runSubtask(ctx context.Context, sub *plan.Subtask) bool {
	now := time.Now().UTC()
	r.mutate(func() {
		sub.Status = plan.SubtaskInProgress
		sub.StartedAt = &now
	})
	r.m.events.AddEvent(r.specID, r.runID, store.EventSubtask, "started: "+sub.Description)

	// The prompt reads sibling subtask state, so build it under the
	// same lock the workers mutate under.
	r.mu.Lock()
	p := prompt.Subtask(r.specText, r.doc, sub)
	r.mu.Unlock()

	resp := r.runner.Run(ctx, agent.Request{
		Prompt:     p,
		WorkDir:    r.workDir,
		TimeoutSec: r.m.cfg.Agent.Timeout(),
	})
	r.m.saveArtifact(r.specID, r.runID, sub.ID, resp.Output)

	if ctx.Err() != nil {
		// Killed mid-flight: the in_progress marker stays for recovery.
		return false
	}

	if q := agent.ParseBlocked(resp.Output); q != "" {
		r.mutate(func() {
			sub.Status = plan.SubtaskFailed
			sub.ActualOutput = "blocked: " + q
		})
		r.m.events.AddEvent(r.specID, r.runID, store.EventSubtask, "blocked: "+sub.Description)
		return false
	}
	if resp.Failed() {
		r.mutate(func() {
			sub.Status = plan.SubtaskFailed
			sub.ActualOutput = truncate(resp.Output, maxEvidence)
		})
		r.m.events.AddEvent(r.specID, r.runID, store.EventSubtask, "failed: "+sub.Description)
		return false
	}

	done := time.Now().UTC()
	r.mutate(func() {
		sub.Status = plan.SubtaskCompleted
		sub.CompletedAt = &done
		sub.ActualOutput = truncate(resp.Output, maxEvidence)
	})
	r.m.events.AddEvent(r.specID, r.runID, store.EventSubtask, "completed: "+sub.Description)
	return true
}

// runQA hands the completed work to the reviewer agent and applies the
// verdict.
func (r *taskRun) runQA(ctx context.Context) {
	r.setStatus("review")

	title, _ := r.m.taskTitle(r.specID)
	reviewer := r.m.factory(*r.m.cfg.Reviewer)
	resp := reviewer.Run(ctx, agent.Request{
		Prompt:     prompt.QA(title, r.specText),
		WorkDir:    r.workDir,
		TimeoutSec: r.m.cfg.Reviewer.Timeout(),
	})
	r.m.saveArtifact(r.specID, r.runID, "qa", resp.Output)

	if ctx.Err() != nil {
		r.m.events.AddEvent(r.specID, r.runID, store.EventRunFinished, "killed")
		return
	}

	verdict := agent.ParseVerdict(resp.Output)
	report := resp.Output
	if verdict == agent.VerdictRejected {
		// Guarantee the rejection token the status resolver looks for,
		// whatever casing the reviewer used.
		report = "VERDICT: REJECTED\n\n" + report
	}
	os.WriteFile(specdir.QAReportPath(r.m.specDir(r.specID)), []byte(report), 0644)

	switch verdict {
	case agent.VerdictApproved:
		now := time.Now().UTC()
		r.mutate(func() {
			r.doc.QASignoff = &plan.QASignoff{Status: "approved", SignedOffAt: &now}
			r.doc.SetStatus("human_review")
		})
		r.m.events.AddEvent(r.specID, r.runID, store.EventQAVerdict, "approved")
		r.m.notify(r.specID, "QA approved, ready for human review")

	case agent.VerdictRejected:
		r.setStatus("")
		r.m.events.AddEvent(r.specID, r.runID, store.EventQAVerdict, "rejected")
		r.m.notify(r.specID, "QA rejected the work")

	default:
		r.setStatus("")
		r.m.events.AddEvent(r.specID, r.runID, store.EventQAVerdict, "no verdict")
	}

	r.m.events.AddEvent(r.specID, r.runID, store.EventRunFinished, "qa done")
}

// mutate applies a plan change under the run lock and persists it.
func (r *taskRun) mutate(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
	r.m.savePlan(r.specID, r.doc)
}

func (r *taskRun) setStatus(raw string) {
	r.mutate(func() { r.doc.SetStatus(raw) })
}

// commitWork snapshots the finished work when the workdir is a repo
// with history.
func (r *taskRun) commitWork() {
	repo := git.New(r.workDir)
	info := repo.Status()
	if !info.IsGitRepo || !info.HasCommits {
		return
	}
	title, _ := r.m.taskTitle(r.specID)
	repo.CommitAll(fmt.Sprintf("autoclaude: %s %s", r.specID, title))
}

// resolveWorkDir picks the directory the agents run in. With worktree
// isolation enabled and a usable repo, each task gets its own worktree
// under the data directory; the branch survives the run for review.
func (m *Manager) resolveWorkDir(specID string) string {
	if !m.cfg.Defaults.Worktree {
		return m.projectDir
	}

	repo := git.New(m.projectDir)
	info := repo.Status()
	if !info.IsGitRepo || !info.HasCommits {
		return m.projectDir
	}

	wt := git.WorktreePath(m.dataDir, specID)
	if repo.HasWorktree(wt) {
		return wt
	}

	base, err := repo.BaseBranch(m.cfg.Defaults.BaseBranch)
	if err != nil {
		return m.projectDir
	}
	if err := repo.AddWorktree(wt, "task/"+specID, base); err != nil {
		return m.projectDir
	}
	return wt
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
