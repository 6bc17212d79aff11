package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/config"
	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/autoclaude/autoclaude/internal/store"
)

// fakeRunner answers prompts from a script function.
type fakeRunner struct {
	name string
	fn   func(req agent.Request) *agent.Response
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(ctx context.Context, req agent.Request) *agent.Response {
	if ctx.Err() != nil {
		return &agent.Response{ExitCode: -1, Err: ctx.Err()}
	}
	return f.fn(req)
}

// env wires a Manager against a temp project.
type env struct {
	projectDir string
	dataDir    string
	specID     string
	events     *store.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	projectDir := t.TempDir()
	dataDir := filepath.Join(projectDir, ".autoclaude")
	specID := "001-add-auth"

	dir := filepath.Join(dataDir, "specs", specID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	specdir.SaveRequirements(dir, &specdir.Requirements{Title: "Add auth", Description: "JWT login"})

	events, err := store.Open(filepath.Join(dataDir, "autoclaude.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { events.Close() })

	return &env{projectDir: projectDir, dataDir: dataDir, specID: specID, events: events}
}

func (e *env) specDir() string {
	return filepath.Join(e.dataDir, "specs", e.specID)
}

func (e *env) writePlan(t *testing.T, doc *plan.Document) {
	t.Helper()
	if err := plan.Save(specdir.PlanPath(e.specDir()), doc); err != nil {
		t.Fatal(err)
	}
}

func (e *env) loadPlan(t *testing.T) *plan.Document {
	t.Helper()
	doc, err := plan.Load(specdir.PlanPath(e.specDir()))
	if err != nil || doc == nil {
		t.Fatalf("plan.Load: doc=%v err=%v", doc, err)
	}
	return doc
}

func (e *env) manager(cfg *config.Config, factory agent.Factory) *Manager {
	return NewManager(e.projectDir, e.dataDir, cfg, e.events, factory, nil)
}

func twoStepPlan() *plan.Document {
	doc := plan.New()
	doc.Phases = []*plan.Phase{{
		Name: "implementation",
		Subtasks: []*plan.Subtask{
			{ID: "st-1-1", Description: "write handler", Status: plan.SubtaskPending},
			{ID: "st-1-2", Description: "write tests", Status: plan.SubtaskPending},
		},
	}}
	return doc
}

func scripted(fn func(req agent.Request) *agent.Response) agent.Factory {
	return func(cfg config.Agent) agent.Runner {
		return &fakeRunner{name: cfg.Cmd, fn: fn}
	}
}

func TestTaskExecutionCompletesAllSubtasks(t *testing.T) {
	e := newEnv(t)
	e.writePlan(t, twoStepPlan())

	cfg := &config.Config{Agent: config.Agent{Cmd: "fake"}}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		return &agent.Response{Output: "implemented"}
	}))

	if err := m.StartTaskExecution(e.specID); err != nil {
		t.Fatalf("StartTaskExecution: %v", err)
	}
	m.Wait(e.specID)

	doc := e.loadPlan(t)
	if doc.Status != "human_review" {
		t.Fatalf("raw status = %q, want human_review", doc.Status)
	}
	for _, sub := range doc.AllSubtasks() {
		if sub.Status != plan.SubtaskCompleted {
			t.Fatalf("subtask %s status = %q", sub.ID, sub.Status)
		}
		if sub.StartedAt == nil || sub.CompletedAt == nil {
			t.Fatalf("subtask %s missing timestamps", sub.ID)
		}
		if sub.ActualOutput != "implemented" {
			t.Fatalf("subtask %s output = %q", sub.ID, sub.ActualOutput)
		}
	}

	st, reason := status.Resolve(status.Input{Plan: doc})
	if st != status.HumanReview || reason != status.ReasonCompleted {
		t.Fatalf("Resolve = %v/%v", st, reason)
	}
}

func TestTaskExecutionStopsOnFailure(t *testing.T) {
	e := newEnv(t)
	e.writePlan(t, twoStepPlan())

	cfg := &config.Config{Agent: config.Agent{Cmd: "fake"}}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		if strings.Contains(req.Prompt, "write tests") {
			return &agent.Response{Output: "boom", ExitCode: 1}
		}
		return &agent.Response{Output: "ok"}
	}))

	if err := m.StartTaskExecution(e.specID); err != nil {
		t.Fatal(err)
	}
	m.Wait(e.specID)

	doc := e.loadPlan(t)
	if doc.Status != "" {
		t.Fatalf("raw status = %q, want empty after failure", doc.Status)
	}

	subs := doc.AllSubtasks()
	if subs[0].Status != plan.SubtaskCompleted {
		t.Fatalf("first subtask = %q", subs[0].Status)
	}
	if subs[1].Status != plan.SubtaskFailed {
		t.Fatalf("second subtask = %q", subs[1].Status)
	}

	st, reason := status.Resolve(status.Input{Plan: doc})
	if st != status.HumanReview || reason != status.ReasonErrors {
		t.Fatalf("Resolve = %v/%v", st, reason)
	}
}

func TestTaskExecutionQAApproved(t *testing.T) {
	e := newEnv(t)
	e.writePlan(t, twoStepPlan())

	cfg := &config.Config{
		Agent:    config.Agent{Cmd: "coder"},
		Reviewer: &config.Agent{Cmd: "reviewer"},
	}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		if strings.Contains(req.Prompt, "QA reviewer") {
			return &agent.Response{Output: "All good.\nVERDICT: APPROVED"}
		}
		return &agent.Response{Output: "ok"}
	}))

	if err := m.StartTaskExecution(e.specID); err != nil {
		t.Fatal(err)
	}
	m.Wait(e.specID)

	doc := e.loadPlan(t)
	if !doc.QASignoff.Approved() {
		t.Fatal("expected approved qa_signoff")
	}
	if doc.Status != "human_review" {
		t.Fatalf("raw status = %q", doc.Status)
	}

	st, reason := status.Resolve(status.Input{Plan: doc})
	if st != status.HumanReview || reason != status.ReasonCompleted {
		t.Fatalf("Resolve = %v/%v", st, reason)
	}
}

func TestTaskExecutionQARejected(t *testing.T) {
	e := newEnv(t)
	e.writePlan(t, twoStepPlan())

	cfg := &config.Config{
		Agent:    config.Agent{Cmd: "coder"},
		Reviewer: &config.Agent{Cmd: "reviewer"},
	}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		if strings.Contains(req.Prompt, "QA reviewer") {
			return &agent.Response{Output: "Tests are missing.\nVERDICT: rejected"}
		}
		return &agent.Response{Output: "ok"}
	}))

	if err := m.StartTaskExecution(e.specID); err != nil {
		t.Fatal(err)
	}
	m.Wait(e.specID)

	doc := e.loadPlan(t)
	if doc.Status != "" {
		t.Fatalf("raw status = %q, want empty after rejection", doc.Status)
	}
	if doc.QASignoff.Approved() {
		t.Fatal("rejected run must not carry an approved signoff")
	}

	report := specdir.ReadQAReport(e.specDir())
	if !strings.Contains(report, "REJECTED") {
		t.Fatalf("report missing rejection token: %q", report)
	}

	st, reason := status.Resolve(status.Input{Plan: doc, QAReport: report})
	if st != status.HumanReview || reason != status.ReasonQARejected {
		t.Fatalf("Resolve = %v/%v", st, reason)
	}
}

func TestSpecCreationDraftsSpecAndOutline(t *testing.T) {
	e := newEnv(t)

	cfg := &config.Config{Agent: config.Agent{Cmd: "fake"}}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		if strings.Contains(req.Prompt, "drafting a specification") {
			return &agent.Response{Output: "# Add auth\n\nUse JWT."}
		}
		return &agent.Response{Output: "PHASE: setup\n1. add dependencies\nPHASE: implementation\n1. login endpoint\n2. token middleware"}
	}))

	if err := m.StartSpecCreation(e.specID); err != nil {
		t.Fatal(err)
	}
	m.Wait(e.specID)

	if !specdir.HasSpec(e.specDir()) {
		t.Fatal("spec.md not written")
	}

	doc := e.loadPlan(t)
	if doc.Status != "human_review" || doc.PlanStatus != "review" {
		t.Fatalf("status = %q planStatus = %q", doc.Status, doc.PlanStatus)
	}
	if len(doc.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(doc.Phases))
	}
	if got := len(doc.Phases[1].Subtasks); got != 2 {
		t.Fatalf("implementation subtasks = %d, want 2", got)
	}

	st, reason := status.Resolve(status.Input{Plan: doc})
	if st != status.HumanReview || reason != status.ReasonPlanReview {
		t.Fatalf("Resolve = %v/%v", st, reason)
	}
}

func TestSpecCreationFailureClearsStatus(t *testing.T) {
	e := newEnv(t)

	cfg := &config.Config{Agent: config.Agent{Cmd: "fake"}}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		return &agent.Response{Output: "crash", ExitCode: 2}
	}))

	if err := m.StartSpecCreation(e.specID); err != nil {
		t.Fatal(err)
	}
	m.Wait(e.specID)

	doc := e.loadPlan(t)
	if doc.Status != "" {
		t.Fatalf("raw status = %q, want empty after failure", doc.Status)
	}
}

func TestDoubleStartAndKill(t *testing.T) {
	e := newEnv(t)
	e.writePlan(t, twoStepPlan())

	release := make(chan struct{})
	cfg := &config.Config{Agent: config.Agent{Cmd: "fake"}}
	m := e.manager(cfg, scripted(func(req agent.Request) *agent.Response {
		<-release
		return &agent.Response{ExitCode: -1, Err: context.Canceled}
	}))

	if err := m.StartTaskExecution(e.specID); err != nil {
		t.Fatal(err)
	}
	if !m.IsRunning(e.specID) {
		t.Fatal("expected IsRunning")
	}
	if err := m.StartTaskExecution(e.specID); err == nil {
		t.Fatal("second start should fail while running")
	}

	m.Kill(e.specID)
	close(release)
	m.Wait(e.specID)

	if m.IsRunning(e.specID) {
		t.Fatal("still running after Kill")
	}

	// The interrupted subtask stays in_progress for recovery to reset.
	doc := e.loadPlan(t)
	if doc.AllSubtasks()[0].Status != plan.SubtaskInProgress {
		t.Fatalf("first subtask = %q, want in_progress", doc.AllSubtasks()[0].Status)
	}
}
