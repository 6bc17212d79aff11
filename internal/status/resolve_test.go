package status

import (
	"testing"

	"github.com/autoclaude/autoclaude/internal/plan"
)

// planWith builds a single-phase plan from subtask statuses.
func planWith(statuses ...plan.SubtaskStatus) *plan.Document {
	ph := &plan.Phase{}
	for i, st := range statuses {
		ph.Subtasks = append(ph.Subtasks, &plan.Subtask{
			ID:     string(rune('a' + i)),
			Status: st,
		})
	}
	return &plan.Document{Phases: []*plan.Phase{ph}}
}

func TestResolve_NilPlan(t *testing.T) {
	st, reason := Resolve(Input{Plan: nil})
	if st != Backlog {
		t.Fatalf("expected backlog, got %s", st)
	}
	if reason != "" {
		t.Fatalf("expected no reason, got %s", reason)
	}
}

func TestResolve_EmptyPlan(t *testing.T) {
	// { phases: [] } with a manual source resolves to backlog, no reason.
	st, reason := Resolve(Input{Plan: &plan.Document{Phases: []*plan.Phase{}}, Manual: true})
	if st != Backlog || reason != "" {
		t.Fatalf("expected backlog/none, got %s/%s", st, reason)
	}
}

func TestResolve_ZeroSubtasksNoStoredStatus(t *testing.T) {
	st, _ := Resolve(Input{Plan: &plan.Document{}})
	if st != Backlog {
		t.Fatalf("expected backlog, got %s", st)
	}
}

func TestResolve_AllPendingIsBacklog(t *testing.T) {
	st, _ := Resolve(Input{Plan: planWith(plan.SubtaskPending, plan.SubtaskPending)})
	if st != Backlog {
		t.Fatalf("expected backlog for untouched subtasks, got %s", st)
	}
}

func TestResolve_PartialProgress(t *testing.T) {
	st, _ := Resolve(Input{Plan: planWith(plan.SubtaskCompleted, plan.SubtaskPending)})
	if st != InProgress {
		t.Fatalf("expected in_progress, got %s", st)
	}

	st, _ = Resolve(Input{Plan: planWith(plan.SubtaskInProgress, plan.SubtaskPending)})
	if st != InProgress {
		t.Fatalf("expected in_progress, got %s", st)
	}
}

func TestResolve_MixedFailure(t *testing.T) {
	// [completed, failed, pending] → human_review/errors.
	st, reason := Resolve(Input{Plan: planWith(plan.SubtaskCompleted, plan.SubtaskFailed, plan.SubtaskPending)})
	if st != HumanReview || reason != ReasonErrors {
		t.Fatalf("expected human_review/errors, got %s/%s", st, reason)
	}
}

func TestResolve_AllCompletedNonManual(t *testing.T) {
	st, _ := Resolve(Input{Plan: planWith(plan.SubtaskCompleted, plan.SubtaskCompleted)})
	if st != AIReview {
		t.Fatalf("expected ai_review, got %s", st)
	}
}

func TestResolve_AllCompletedManualSkipsAIReview(t *testing.T) {
	st, reason := Resolve(Input{Plan: planWith(plan.SubtaskCompleted), Manual: true})
	if st != HumanReview || reason != ReasonCompleted {
		t.Fatalf("expected human_review/completed, got %s/%s", st, reason)
	}
}

func TestResolve_AllCompletedQAApproved(t *testing.T) {
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskCompleted)
	doc.QASignoff = &plan.QASignoff{Status: "approved"}

	st, reason := Resolve(Input{Plan: doc})
	if st != HumanReview || reason != ReasonCompleted {
		t.Fatalf("expected human_review/completed, got %s/%s", st, reason)
	}
}

func TestResolve_StoredDoneIsUnconditional(t *testing.T) {
	// No combination of subtask states may override a stored done.
	combos := [][]plan.SubtaskStatus{
		{},
		{plan.SubtaskPending},
		{plan.SubtaskFailed, plan.SubtaskFailed},
		{plan.SubtaskInProgress},
		{plan.SubtaskCompleted, plan.SubtaskFailed},
	}
	for _, raw := range []string{"done", "completed"} {
		for _, combo := range combos {
			doc := planWith(combo...)
			doc.Status = raw
			st, reason := Resolve(Input{Plan: doc})
			if st != Done {
				t.Fatalf("stored %q with subtasks %v: expected done, got %s", raw, combo, st)
			}
			if reason != "" {
				t.Fatalf("done must carry no reason, got %s", reason)
			}
		}
	}
}

func TestResolve_StoredMatchingCalculatedAccepted(t *testing.T) {
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskPending)
	doc.Status = "in_progress"
	st, _ := Resolve(Input{Plan: doc})
	if st != InProgress {
		t.Fatalf("expected in_progress, got %s", st)
	}
}

func TestResolve_StoredHumanReviewOverAIReview(t *testing.T) {
	// All subtasks done; plan already promoted to human review.
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskCompleted)
	doc.Status = "human_review"
	st, reason := Resolve(Input{Plan: doc})
	if st != HumanReview {
		t.Fatalf("expected human_review, got %s", st)
	}
	if reason != ReasonCompleted {
		t.Fatalf("expected completed reason, got %s", reason)
	}
}

func TestResolve_StoredHumanReviewDuringPlanReview(t *testing.T) {
	// Drafted spec awaiting approval: no subtasks yet, planStatus=review.
	doc := &plan.Document{Status: "human_review", PlanStatus: "review"}
	st, reason := Resolve(Input{Plan: doc})
	if st != HumanReview {
		t.Fatalf("expected human_review, got %s", st)
	}
	if reason != ReasonPlanReview {
		t.Fatalf("expected plan_review reason, got %s", reason)
	}
}

func TestResolve_TrustsActivePlanningWithZeroSubtasks(t *testing.T) {
	// planning/coding are live pre-subtask phases: in_progress must hold
	// even though the calculated status is backlog.
	for _, raw := range []string{"planning", "coding"} {
		doc := &plan.Document{Status: raw}
		st, _ := Resolve(Input{Plan: doc})
		if st != InProgress {
			t.Fatalf("raw %q with zero subtasks: expected in_progress, got %s", raw, st)
		}
	}
}

func TestResolve_StoredHumanReviewWithFailures(t *testing.T) {
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskFailed)
	doc.Status = "human_review"
	st, reason := Resolve(Input{Plan: doc})
	if st != HumanReview || reason != ReasonErrors {
		t.Fatalf("expected human_review/errors, got %s/%s", st, reason)
	}
}

func TestResolve_InconsistentStoredStatusRejected(t *testing.T) {
	// Plan claims review but nothing has run, so the stored status is
	// stale and the calculated backlog wins.
	doc := planWith(plan.SubtaskPending)
	doc.Status = "review"
	st, _ := Resolve(Input{Plan: doc})
	if st != Backlog {
		t.Fatalf("expected stale stored status rejected, got %s", st)
	}
}

func TestResolve_UnknownStoredStatusIgnored(t *testing.T) {
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskPending)
	doc.Status = "warping"
	st, _ := Resolve(Input{Plan: doc})
	if st != InProgress {
		t.Fatalf("expected calculated in_progress, got %s", st)
	}
}

func TestResolve_QAReportRejected(t *testing.T) {
	doc := planWith(plan.SubtaskPending)
	doc.Status = "review" // inconsistent, so the QA report decides

	st, reason := Resolve(Input{Plan: doc, QAReport: "# QA\n\nVerdict: REJECTED\n"})
	if st != HumanReview || reason != ReasonQARejected {
		t.Fatalf("expected human_review/qa_rejected, got %s/%s", st, reason)
	}
}

func TestResolve_QAReportFailedToken(t *testing.T) {
	st, reason := Resolve(Input{Plan: planWith(plan.SubtaskPending), QAReport: "3 checks FAILED"})
	if st != HumanReview || reason != ReasonQARejected {
		t.Fatalf("expected human_review/qa_rejected, got %s/%s", st, reason)
	}
}

func TestResolve_QAReportPassedNeedsAllCompleted(t *testing.T) {
	// PASSED with unfinished subtasks does not promote the task.
	st, _ := Resolve(Input{Plan: planWith(plan.SubtaskCompleted, plan.SubtaskPending), QAReport: "PASSED"})
	if st != InProgress {
		t.Fatalf("expected in_progress, got %s", st)
	}
}

func TestResolve_QAReportPassedAllCompleted(t *testing.T) {
	// Stored status absent; verdict file promotes to human review.
	st, reason := Resolve(Input{Plan: planWith(plan.SubtaskCompleted), QAReport: "All checks PASSED"})
	if st != HumanReview || reason != ReasonCompleted {
		t.Fatalf("expected human_review/completed, got %s/%s", st, reason)
	}
}

func TestResolve_QAReportCaseSensitive(t *testing.T) {
	// Lowercase "rejected" is not a verdict token.
	st, _ := Resolve(Input{Plan: planWith(plan.SubtaskPending), QAReport: "nothing rejected here"})
	if st != Backlog {
		t.Fatalf("expected backlog, got %s", st)
	}
}

func TestResolve_ValidStoredStatusBeatsQAReport(t *testing.T) {
	// A consistent stored status takes precedence over the QA report.
	doc := planWith(plan.SubtaskCompleted, plan.SubtaskPending)
	doc.Status = "in_progress"
	st, _ := Resolve(Input{Plan: doc, QAReport: "REJECTED"})
	if st != InProgress {
		t.Fatalf("expected in_progress, got %s", st)
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range All() {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("bogus").Valid() {
		t.Error("bogus should be invalid")
	}
}
