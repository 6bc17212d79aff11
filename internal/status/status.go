// Package status computes the display status of a task from its plan
// document, QA report, and provenance. Resolution is pure: the same
// inputs always produce the same status, and nothing here touches disk.
package status

// Status is the board column a task lands in.
type Status string

const (
	Backlog     Status = "backlog"
	InProgress  Status = "in_progress"
	AIReview    Status = "ai_review"
	HumanReview Status = "human_review"
	Done        Status = "done"
)

// Reason qualifies why a task sits in human_review. It is meaningless
// for any other status.
type Reason string

const (
	ReasonCompleted  Reason = "completed"
	ReasonErrors     Reason = "errors"
	ReasonQARejected Reason = "qa_rejected"
	ReasonPlanReview Reason = "plan_review"
)

// Valid reports whether s is one of the five task statuses.
func (s Status) Valid() bool {
	switch s {
	case Backlog, InProgress, AIReview, HumanReview, Done:
		return true
	}
	return false
}

// All lists the task statuses in board order.
func All() []Status {
	return []Status{Backlog, InProgress, AIReview, HumanReview, Done}
}
