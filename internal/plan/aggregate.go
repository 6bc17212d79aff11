package plan

// Summary counts subtasks by status across all phases.
type Summary struct {
	Total      int
	Completed  int
	Failed     int
	InProgress int
}

// AllCompleted reports whether the plan has subtasks and every one of
// them finished.
func (s Summary) AllCompleted() bool {
	return s.Total > 0 && s.Completed == s.Total
}

// Aggregate walks the plan and tallies subtasks. A nil document or a
// plan without phases counts as zero subtasks, not an error.
func Aggregate(doc *Document) Summary {
	var sum Summary
	for _, st := range doc.AllSubtasks() {
		sum.Total++
		switch st.Status {
		case SubtaskCompleted:
			sum.Completed++
		case SubtaskFailed:
			sum.Failed++
		case SubtaskInProgress:
			sum.InProgress++
		}
	}
	return sum
}

// ResetStuck returns every in_progress or failed subtask to pending and
// clears its partial-execution evidence, so a restart reprocesses it
// cleanly. Completed subtasks are never touched, so a restart resumes
// rather than redoes finished work. Returns the number of resets.
func ResetStuck(doc *Document) int {
	n := 0
	for _, st := range doc.AllSubtasks() {
		if st.Status != SubtaskInProgress && st.Status != SubtaskFailed {
			continue
		}
		st.Status = SubtaskPending
		st.ActualOutput = ""
		st.StartedAt = nil
		st.CompletedAt = nil
		n++
	}
	return n
}
