// Package prompt builds the text handed to an agent for each stage of a
// task: drafting the spec, outlining the plan, executing one subtask,
// and the QA pass. Think of each prompt as the ticket the agent reads
// before starting work.
package prompt

import (
	"fmt"
	"strings"

	"github.com/autoclaude/autoclaude/internal/plan"
)

// Spec asks the agent to draft a spec.md for a task.
func Spec(title, description string) string {
	var sb strings.Builder
	sb.WriteString("# You are drafting a specification\n")
	sb.WriteString("Write a concise markdown specification for the task below. ")
	sb.WriteString("Cover goals, approach, and acceptance criteria. Output only the document.\n\n")
	sb.WriteString(taskSection(title, description))
	return sb.String()
}

// Outline asks the agent to break the spec into phases and subtasks.
func Outline(title, description, specText string) string {
	var sb strings.Builder
	sb.WriteString("# You are planning an implementation\n")
	sb.WriteString("Break the work into phases of small, independent subtasks.\n\n")
	sb.WriteString(taskSection(title, description))
	if specText != "" {
		sb.WriteString("\n## Specification\n")
		sb.WriteString(specText)
		sb.WriteString("\n")
	}
	sb.WriteString(`
## Response Format
PHASE: [phase name]
1. [subtask description]
2. [subtask description]

Use multiple PHASE sections when later work depends on earlier work.
If you need clarification from the user, say: BLOCKED: [your question]`)
	return sb.String()
}

// Subtask asks the agent to implement one subtask, with the spec and
// the outputs of completed subtasks as context.
func Subtask(specText string, doc *plan.Document, sub *plan.Subtask) string {
	var sb strings.Builder
	sb.WriteString("# You are a software developer\n")
	sb.WriteString("Implement the subtask below. Focus on it alone; don't refactor unrelated code.\n\n")

	if specText != "" {
		sb.WriteString("## Specification\n")
		sb.WriteString(specText)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Subtask\n")
	if sub.ID != "" {
		sb.WriteString(fmt.Sprintf("**%s**: ", sub.ID))
	}
	sb.WriteString(sub.Description)
	sb.WriteString("\n")

	if history := completedHistory(doc); history != "" {
		sb.WriteString("\n## Completed so far\n")
		sb.WriteString(history)
	}

	sb.WriteString(`
## Instructions
- Make the changes needed to complete this subtask
- If you need information from the user, say: BLOCKED: [your question]
- End with a one-paragraph summary of what you changed`)
	return sb.String()
}

// QA asks the reviewer agent for a verdict on the finished work.
func QA(title, specText string) string {
	var sb strings.Builder
	sb.WriteString("# You are a QA reviewer\n")
	sb.WriteString(fmt.Sprintf("Review the implementation of %q against its specification. ", title))
	sb.WriteString("Check the working tree; run tests if present. Focus on correctness, not style.\n\n")

	if specText != "" {
		sb.WriteString("## Specification\n")
		sb.WriteString(specText)
		sb.WriteString("\n")
	}

	sb.WriteString(`
## Response Format
VERDICT: APPROVED or REJECTED

Then a short markdown report. If rejecting, list the specific problems.`)
	return sb.String()
}

func taskSection(title, description string) string {
	var sb strings.Builder
	sb.WriteString("## Task\n")
	sb.WriteString(fmt.Sprintf("**%s**\n", title))
	if description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", description))
	}
	return sb.String()
}

// completedHistory summarizes finished subtasks so later ones build on
// their outputs instead of repeating work.
func completedHistory(doc *plan.Document) string {
	var sb strings.Builder
	for _, st := range doc.AllSubtasks() {
		if st.Status != plan.SubtaskCompleted {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s", st.Description))
		if out := strings.TrimSpace(st.ActualOutput); out != "" {
			sb.WriteString(": ")
			sb.WriteString(truncate(out, 300))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
