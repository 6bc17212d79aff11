package executor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/prompt"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/store"
)

// StartSpecCreation launches the spec drafting flow for a task: the
// agent writes spec.md, then outlines the implementation plan. On
// completion the plan is parked in review, awaiting human approval of
// the drafted spec. The run is asynchronous; use Wait to block.
func (m *Manager) StartSpecCreation(specID string) error {
	dir := m.specDir(specID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("unknown task %s: %w", specID, err)
	}

	exec, ctx, err := m.begin(specID)
	if err != nil {
		return err
	}

	doc, _ := plan.Load(specdir.PlanPath(dir))
	if doc == nil {
		doc = plan.New()
	}
	doc.SetStatus("planning")
	if err := m.savePlan(specID, doc); err != nil {
		m.finish(specID, exec)
		return err
	}

	go func() {
		defer m.finish(specID, exec)
		m.runSpecCreation(ctx, specID, doc)
	}()
	return nil
}

func (m *Manager) runSpecCreation(ctx context.Context, specID string, doc *plan.Document) {
	runID := uuid.NewString()
	m.events.AddEvent(specID, runID, store.EventRunStarted, "spec creation")

	title, description := m.taskTitle(specID)
	runner := m.factory(m.cfg.Agent)

	// Draft the spec document.
	resp := runner.Run(ctx, agent.Request{
		Prompt:     prompt.Spec(title, description),
		WorkDir:    m.projectDir,
		TimeoutSec: m.cfg.Agent.Timeout(),
	})
	m.saveArtifact(specID, runID, "spec", resp.Output)
	if resp.Failed() {
		m.failSpecCreation(specID, runID, doc, resp)
		return
	}

	specText := resp.Output
	if err := os.WriteFile(specdir.SpecPath(m.specDir(specID)), []byte(specText), 0644); err != nil {
		doc.SetStatus("")
		m.savePlan(specID, doc)
		m.events.AddEvent(specID, runID, store.EventRunFinished, "failed: "+err.Error())
		return
	}

	// Outline the plan from the drafted spec.
	resp = runner.Run(ctx, agent.Request{
		Prompt:     prompt.Outline(title, description, specText),
		WorkDir:    m.projectDir,
		TimeoutSec: m.cfg.Agent.Timeout(),
	})
	m.saveArtifact(specID, runID, "outline", resp.Output)
	if resp.Failed() {
		m.failSpecCreation(specID, runID, doc, resp)
		return
	}
	if q := agent.ParseBlocked(resp.Output); q != "" {
		doc.SetStatus("")
		m.savePlan(specID, doc)
		m.events.AddEvent(specID, runID, store.EventRunFinished, "blocked: "+q)
		m.notify(specID, "planner blocked: "+q)
		return
	}

	doc.Phases = buildPhases(agent.ParseOutline(resp.Output))

	// The spec is drafted; the task now waits for a human to approve it.
	doc.Status = "human_review"
	doc.PlanStatus = "review"
	if err := m.savePlan(specID, doc); err != nil {
		m.events.AddEvent(specID, runID, store.EventRunFinished, "failed: "+err.Error())
		return
	}

	m.events.AddEvent(specID, runID, store.EventRunFinished, "spec drafted")
	m.notify(specID, "spec drafted, awaiting review")
}

func (m *Manager) failSpecCreation(specID, runID string, doc *plan.Document, resp *agent.Response) {
	doc.SetStatus("")
	m.savePlan(specID, doc)
	msg := fmt.Sprintf("failed: exit %d", resp.ExitCode)
	if resp.Err != nil {
		msg = "failed: " + resp.Err.Error()
	}
	m.events.AddEvent(specID, runID, store.EventRunFinished, msg)
	m.notify(specID, "spec creation "+msg)
}

// buildPhases converts a parsed outline into plan phases with stable
// positional subtask IDs.
func buildPhases(outline agent.Outline) []*plan.Phase {
	var phases []*plan.Phase
	for pi, op := range outline.Phases {
		ph := &plan.Phase{Name: op.Name}
		for si, desc := range op.Subtasks {
			ph.Subtasks = append(ph.Subtasks, &plan.Subtask{
				ID:          fmt.Sprintf("st-%d-%d", pi+1, si+1),
				Description: desc,
				Status:      plan.SubtaskPending,
			})
		}
		phases = append(phases, ph)
	}
	return phases
}
