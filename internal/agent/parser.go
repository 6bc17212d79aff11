package agent

import (
	"regexp"
	"strings"
)

// Outline is a plan skeleton extracted from planner output.
type Outline struct {
	Phases []OutlinePhase
}

// OutlinePhase is one named group of subtask descriptions.
type OutlinePhase struct {
	Name     string
	Subtasks []string
}

var (
	phaseRe   = regexp.MustCompile(`(?i)^PHASE\s*(?:\d+)?\s*[:\-]\s*(.+)$`)
	itemRe    = regexp.MustCompile(`^(?:\d+[\.\)]\s*|[-*]\s+)(.+)`)
	verdictRe = regexp.MustCompile(`(?m)^VERDICT:\s*(\w+)`)
)

// ParseOutline extracts phases and subtasks from planner output.
// Expected shape:
//
//	PHASE: setup
//	1. scaffold the package
//	2. wire configuration
//	PHASE: implementation
//	1. ...
//
// Numbered or bulleted lines without any PHASE header fall into a
// single "implementation" phase. Returns an empty outline when nothing
// parseable is found.
func ParseOutline(output string) Outline {
	var out Outline
	var current *OutlinePhase

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := phaseRe.FindStringSubmatch(trimmed); m != nil {
			out.Phases = append(out.Phases, OutlinePhase{Name: cleanItem(m[1])})
			current = &out.Phases[len(out.Phases)-1]
			continue
		}

		m := itemRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		desc := cleanItem(m[1])
		if desc == "" {
			continue
		}

		if current == nil {
			out.Phases = append(out.Phases, OutlinePhase{Name: "implementation"})
			current = &out.Phases[len(out.Phases)-1]
		}
		current.Subtasks = append(current.Subtasks, desc)
	}

	// Drop phases that ended up empty (e.g. trailing headers).
	var kept []OutlinePhase
	for _, ph := range out.Phases {
		if len(ph.Subtasks) > 0 {
			kept = append(kept, ph)
		}
	}
	out.Phases = kept
	return out
}

// cleanItem strips markdown decoration from a parsed line.
func cleanItem(s string) string {
	s = strings.Trim(s, "[]*`")
	return strings.TrimSpace(s)
}

// QA verdicts parsed from reviewer output.
const (
	VerdictApproved = "APPROVED"
	VerdictRejected = "REJECTED"
)

// ParseVerdict extracts the QA verdict from reviewer output. Expected:
//
//	VERDICT: APPROVED
//
// Returns "" when no verdict line is present.
func ParseVerdict(output string) string {
	m := verdictRe.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	switch strings.ToUpper(m[1]) {
	case "APPROVED", "APPROVE", "PASSED", "PASS":
		return VerdictApproved
	case "REJECTED", "REJECT", "FAILED", "FAIL":
		return VerdictRejected
	}
	return ""
}

// ParseBlocked extracts a "BLOCKED: question" line from agent output,
// or "" when the agent did not block.
func ParseBlocked(output string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToUpper(trimmed), "BLOCKED:") {
			return strings.TrimSpace(trimmed[8:])
		}
	}
	return ""
}
