// Package specdir knows the on-disk layout of a spec, the directory
// holding one task's specification and work record, and allocates new
// numbered spec directories.
package specdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/autoclaude/autoclaude/internal/lockfile"
)

// File names inside a spec directory.
const (
	PlanFile         = "implementation_plan.json"
	SpecFile         = "spec.md"
	QAReportFile     = "qa_report.md"
	MetadataFile     = "task_metadata.json"
	RequirementsFile = "requirements.json"
)

// Task source types recorded in metadata.
const (
	SourceManual = "manual"
	SourceGitHub = "github"
	SourceGitLab = "gitlab"
)

// PlanPath returns the plan document path for a spec directory.
func PlanPath(dir string) string { return filepath.Join(dir, PlanFile) }

// SpecPath returns the spec.md path. Its presence means spec creation
// has completed.
func SpecPath(dir string) string { return filepath.Join(dir, SpecFile) }

// QAReportPath returns the QA report path.
func QAReportPath(dir string) string { return filepath.Join(dir, QAReportFile) }

// MetadataPath returns the task metadata path.
func MetadataPath(dir string) string { return filepath.Join(dir, MetadataFile) }

// RequirementsPath returns the requirements path.
func RequirementsPath(dir string) string { return filepath.Join(dir, RequirementsFile) }

// HasSpec reports whether the spec file exists.
func HasSpec(dir string) bool {
	_, err := os.Stat(SpecPath(dir))
	return err == nil
}

// ReadQAReport returns the QA report text, or "" when absent.
func ReadQAReport(dir string) string {
	data, err := os.ReadFile(QAReportPath(dir))
	if err != nil {
		return ""
	}
	return string(data)
}

// Metadata records a task's provenance and classification. Archival is
// a metadata stamp; the plan document itself is never deleted.
type Metadata struct {
	SourceType string     `json:"sourceType,omitempty"`
	Category   string     `json:"category,omitempty"`
	Complexity string     `json:"complexity,omitempty"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
}

// Archived reports whether the task has been archived.
func (m *Metadata) Archived() bool {
	return m != nil && m.ArchivedAt != nil
}

// LoadMetadata reads task metadata, tolerating a missing or corrupt
// file by returning empty metadata (source defaults to manual).
func LoadMetadata(dir string) *Metadata {
	m := &Metadata{SourceType: SourceManual}
	data, err := os.ReadFile(MetadataPath(dir))
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, m); err != nil {
		return &Metadata{SourceType: SourceManual}
	}
	if m.SourceType == "" {
		m.SourceType = SourceManual
	}
	return m
}

// SaveMetadata persists task metadata atomically.
func SaveMetadata(dir string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return lockfile.WriteLocked(MetadataPath(dir), data)
}

// Requirements is the fallback source for a task's title and description.
type Requirements struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// LoadRequirements reads requirements.json, returning nil when absent
// or unreadable.
func LoadRequirements(dir string) *Requirements {
	data, err := os.ReadFile(RequirementsPath(dir))
	if err != nil {
		return nil
	}
	var r Requirements
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

// SaveRequirements persists requirements atomically.
func SaveRequirements(dir string, r *Requirements) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return lockfile.WriteLocked(RequirementsPath(dir), data)
}

var numberPrefixRe = regexp.MustCompile(`^(\d+)-`)

// numberLock is the lock file guarding spec number allocation under a
// specs root.
func numberLock(specsRoot string) string {
	return filepath.Join(specsRoot, ".spec_number.lock")
}

// NextNumber scans the specs root for NNN- prefixed directories and
// returns max+1. Call it under the allocation lock; Allocate does.
func NextNumber(specsRoot string) (int, error) {
	entries, err := os.ReadDir(specsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("read specs dir: %w", err)
	}

	max := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := numberPrefixRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// Allocate creates the next numbered spec directory for a title and
// returns its path. The sequence lock makes concurrent allocators hand
// out distinct numbers.
func Allocate(specsRoot, title string) (string, error) {
	if err := os.MkdirAll(specsRoot, 0755); err != nil {
		return "", fmt.Errorf("create specs dir: %w", err)
	}

	var dir string
	err := lockfile.WithLock(numberLock(specsRoot), func() error {
		n, err := NextNumber(specsRoot)
		if err != nil {
			return err
		}
		dir = filepath.Join(specsRoot, fmt.Sprintf("%03d-%s", n, Slug(title)))
		return os.Mkdir(dir, 0755)
	})
	if err != nil {
		return "", err
	}
	return dir, nil
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a directory-safe name.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugCleanRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "task"
	}
	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	return s
}

// Title derives a display title from a spec directory name when no
// requirements file provides one: the number prefix is dropped and
// dashes become spaces.
func Title(specID string) string {
	name := numberPrefixRe.ReplaceAllString(specID, "")
	return strings.ReplaceAll(name, "-", " ")
}
