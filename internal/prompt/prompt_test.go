package prompt

import (
	"strings"
	"testing"

	"github.com/autoclaude/autoclaude/internal/plan"
)

func TestSpec_IncludesTask(t *testing.T) {
	p := Spec("Add auth", "OAuth login flow")
	if !strings.Contains(p, "Add auth") || !strings.Contains(p, "OAuth login flow") {
		t.Fatalf("task details missing from prompt:\n%s", p)
	}
}

func TestOutline_RequestsPhaseFormat(t *testing.T) {
	p := Outline("Add auth", "", "# Spec\ndetails")
	if !strings.Contains(p, "PHASE:") {
		t.Fatal("expected PHASE format instructions")
	}
	if !strings.Contains(p, "# Spec") {
		t.Fatal("expected spec text included")
	}
	if !strings.Contains(p, "BLOCKED:") {
		t.Fatal("expected blocked escape hatch")
	}
}

func TestSubtask_IncludesCompletedHistory(t *testing.T) {
	doc := &plan.Document{Phases: []*plan.Phase{{Subtasks: []*plan.Subtask{
		{ID: "1.1", Description: "scaffold", Status: plan.SubtaskCompleted, ActualOutput: "created files"},
		{ID: "1.2", Description: "wire config", Status: plan.SubtaskPending},
	}}}}

	p := Subtask("spec text", doc, doc.Phases[0].Subtasks[1])
	if !strings.Contains(p, "wire config") {
		t.Fatal("subtask description missing")
	}
	if !strings.Contains(p, "scaffold") || !strings.Contains(p, "created files") {
		t.Fatal("completed history missing")
	}
	if !strings.Contains(p, "Completed so far") {
		t.Fatal("history section header missing")
	}
}

func TestSubtask_NoHistorySection_WhenNothingCompleted(t *testing.T) {
	doc := &plan.Document{Phases: []*plan.Phase{{Subtasks: []*plan.Subtask{
		{ID: "1.1", Description: "first", Status: plan.SubtaskPending},
	}}}}

	p := Subtask("", doc, doc.Phases[0].Subtasks[0])
	if strings.Contains(p, "Completed so far") {
		t.Fatal("unexpected history section")
	}
}

func TestSubtask_TruncatesLongOutput(t *testing.T) {
	long := strings.Repeat("x", 1000)
	doc := &plan.Document{Phases: []*plan.Phase{{Subtasks: []*plan.Subtask{
		{ID: "1", Description: "big", Status: plan.SubtaskCompleted, ActualOutput: long},
		{ID: "2", Description: "next", Status: plan.SubtaskPending},
	}}}}

	p := Subtask("", doc, doc.Phases[0].Subtasks[1])
	if strings.Contains(p, long) {
		t.Fatal("expected long output truncated")
	}
	if !strings.Contains(p, "...") {
		t.Fatal("expected truncation marker")
	}
}

func TestQA_RequestsVerdict(t *testing.T) {
	p := QA("Add auth", "spec")
	if !strings.Contains(p, "VERDICT: APPROVED or REJECTED") {
		t.Fatal("expected verdict format instructions")
	}
}
