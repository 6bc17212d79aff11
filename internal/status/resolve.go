package status

import (
	"strings"

	"github.com/autoclaude/autoclaude/internal/plan"
)

// Input carries everything resolution needs.
type Input struct {
	Plan     *plan.Document // nil when the plan file is missing or corrupt
	QAReport string         // raw qa_report.md text, "" when absent
	Manual   bool           // manually-created tasks skip AI review
}

// storedStatusMap translates the raw status strings written into the
// plan file by the executor (and by older tools) into task statuses.
// Raw strings outside this table are ignored entirely.
var storedStatusMap = map[string]Status{
	"pending":      Backlog,
	"planning":     InProgress,
	"in_progress":  InProgress,
	"coding":       InProgress,
	"review":       AIReview,
	"completed":    Done,
	"done":         Done,
	"human_review": HumanReview,
	"ai_review":    AIReview,
	"backlog":      Backlog,
}

// Resolve computes the effective task status and review reason.
//
// Precedence, strictly in order:
//  1. A stored status of done is trusted unconditionally; an explicit
//     done is a user action and is never reverted by stale subtask data.
//  2. Any other stored status is accepted only if it is consistent with
//     the status calculated from the subtasks themselves; this lets a
//     plan file that fell out of sync (crash mid-task) self-heal.
//  3. With no usable stored status, the QA report text decides.
//  4. Otherwise the calculated status stands.
func Resolve(in Input) (Status, Reason) {
	sum := plan.Aggregate(in.Plan)
	calc, calcReason := calculated(in.Plan, sum, in.Manual)

	if in.Plan != nil && in.Plan.Status != "" {
		if stored, ok := storedStatusMap[in.Plan.Status]; ok {
			if stored == Done {
				return Done, ""
			}
			if storedConsistent(stored, calc, in.Plan) {
				if stored == HumanReview {
					return HumanReview, inferReviewReason(in.Plan, sum)
				}
				return stored, ""
			}
		}
	}

	if st, reason, ok := fromQAReport(in.QAReport, sum); ok {
		return st, reason
	}

	return calc, calcReason
}

// calculated derives a status from the subtask aggregate alone.
func calculated(doc *plan.Document, sum plan.Summary, manual bool) (Status, Reason) {
	if sum.Total == 0 {
		return Backlog, ""
	}
	if sum.AllCompleted() {
		if doc != nil && doc.QASignoff.Approved() {
			return HumanReview, ReasonCompleted
		}
		if manual {
			// Manual tasks have no AI review step.
			return HumanReview, ReasonCompleted
		}
		return AIReview, ""
	}
	if sum.Failed > 0 {
		return HumanReview, ReasonErrors
	}
	if sum.Completed > 0 || sum.InProgress > 0 {
		return InProgress, ""
	}
	// Subtasks exist but none has started.
	return Backlog, ""
}

// storedConsistent reports whether a stored status may override the
// calculated one. Exact agreement always passes. Beyond that:
//
//   - human_review over ai_review: human review is strictly further
//     along, so a plan promoted past AI review is believed.
//   - human_review while planStatus is "review": the drafted spec is
//     awaiting approval, before any subtasks exist.
//   - in_progress while the raw status is planning or coding: these are
//     live pre-subtask phases. This deliberately holds even when zero
//     subtasks make the calculated status backlog; without it a task
//     would regress to backlog the moment planning starts.
func storedConsistent(stored, calc Status, doc *plan.Document) bool {
	if stored == calc {
		return true
	}
	if stored == HumanReview && calc == AIReview {
		return true
	}
	if stored == HumanReview && doc.PlanStatus == "review" {
		return true
	}
	if stored == InProgress && isActiveProcessStatus(doc.Status) {
		return true
	}
	return false
}

// isActiveProcessStatus reports whether the raw status names a phase
// where an agent process is live but no subtasks have run yet.
func isActiveProcessStatus(raw string) bool {
	return raw == "planning" || raw == "coding"
}

// inferReviewReason picks a reason for a stored human_review status that
// did not carry one.
func inferReviewReason(doc *plan.Document, sum plan.Summary) Reason {
	if sum.Failed > 0 {
		return ReasonErrors
	}
	if sum.AllCompleted() {
		return ReasonCompleted
	}
	if doc.PlanStatus == "review" {
		return ReasonPlanReview
	}
	return ""
}

// fromQAReport inspects the QA report text for verdict tokens. The
// match is case-sensitive and on the exact tokens the QA step emits.
func fromQAReport(report string, sum plan.Summary) (Status, Reason, bool) {
	if report == "" {
		return "", "", false
	}
	if strings.Contains(report, "REJECTED") || strings.Contains(report, "FAILED") {
		return HumanReview, ReasonQARejected, true
	}
	if (strings.Contains(report, "PASSED") || strings.Contains(report, "APPROVED")) && sum.AllCompleted() {
		return HumanReview, ReasonCompleted, true
	}
	return "", "", false
}
