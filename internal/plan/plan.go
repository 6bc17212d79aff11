// Package plan defines the implementation plan document, the on-disk
// record of a task's phases, subtasks, and raw status. The plan file is
// the single source of truth; everything shown to the user is recomputed
// from it on every read.
package plan

import (
	"encoding/json"
	"os"
	"time"

	"github.com/autoclaude/autoclaude/internal/lockfile"
)

// SubtaskStatus is the execution state of a single subtask.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskCompleted  SubtaskStatus = "completed"
	SubtaskFailed     SubtaskStatus = "failed"
)

// Subtask is one atomic unit of work within a phase.
type Subtask struct {
	ID           string        `json:"id,omitempty"`
	Description  string        `json:"description,omitempty"`
	Status       SubtaskStatus `json:"status,omitempty"`
	ActualOutput string        `json:"actual_output,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Phase groups subtasks that run together. Older plans used the field
// name "chunks"; both are read, new plans write "subtasks".
type Phase struct {
	Name     string     `json:"name,omitempty"`
	Subtasks []*Subtask `json:"subtasks,omitempty"`
	Chunks   []*Subtask `json:"chunks,omitempty"`
}

// Items returns the phase's subtasks, falling back to the legacy chunks
// field when subtasks is empty.
func (p *Phase) Items() []*Subtask {
	if len(p.Subtasks) > 0 {
		return p.Subtasks
	}
	return p.Chunks
}

// QASignoff records the verdict of the QA step.
type QASignoff struct {
	Status      string     `json:"status,omitempty"` // "approved" or "rejected"
	SignedOffAt *time.Time `json:"signed_off_at,omitempty"`
}

// Approved reports whether QA signed the plan off.
func (q *QASignoff) Approved() bool {
	return q != nil && q.Status == "approved"
}

// Document is the persisted implementation plan for one task.
//
// Status holds the last raw status written by whichever process touched
// the plan (planning, coding, review, ...). It may lag behind or disagree
// with the subtask states; the status resolver cross-checks it rather
// than trusting it blindly. PlanStatus mirrors it for older readers.
type Document struct {
	Version      int        `json:"version,omitempty"`
	Status       string     `json:"status,omitempty"`
	PlanStatus   string     `json:"planStatus,omitempty"`
	Phases       []*Phase   `json:"phases,omitempty"`
	QASignoff    *QASignoff `json:"qa_signoff,omitempty"`
	RecoveryNote string     `json:"recoveryNote,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// New returns an empty versioned plan stamped with the current time.
func New() *Document {
	now := time.Now().UTC()
	return &Document{
		Version:   1,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
}

// AllSubtasks flattens every phase's subtasks, skipping nil and empty
// entries left behind by hand-edited or truncated JSON. An entry with
// neither an id nor a status is noise, not a subtask.
func (d *Document) AllSubtasks() []*Subtask {
	if d == nil {
		return nil
	}
	var all []*Subtask
	for _, ph := range d.Phases {
		if ph == nil {
			continue
		}
		for _, st := range ph.Items() {
			if st == nil || (st.ID == "" && st.Status == "") {
				continue
			}
			all = append(all, st)
		}
	}
	return all
}

// SetStatus updates both the raw status and its compatibility mirror.
func (d *Document) SetStatus(raw string) {
	d.Status = raw
	d.PlanStatus = raw
}

// AppendRecoveryNote adds a line to the recovery audit trail.
func (d *Document) AppendRecoveryNote(note string) {
	if d.RecoveryNote != "" {
		d.RecoveryNote += "\n"
	}
	d.RecoveryNote += note
}

// Load reads the plan document at path. A missing or malformed file
// yields a nil document and no error; the caller treats it as "no plan
// yet" and status computation falls back to an empty aggregate.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil
	}
	return &doc, nil
}

// Save persists the document with a lock and an atomic rename, bumping
// updated_at. Readers stay lock-free; writers never interleave.
func Save(path string, doc *Document) error {
	now := time.Now().UTC()
	doc.UpdatedAt = &now
	if doc.CreatedAt == nil {
		doc.CreatedAt = &now
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return lockfile.WriteLocked(path, data)
}
