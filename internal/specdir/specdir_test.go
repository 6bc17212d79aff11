package specdir

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Add user auth", "add-user-auth"},
		{"  Fix: crash on save!  ", "fix-crash-on-save"},
		{"ALLCAPS", "allcaps"},
		{"---", "task"},
		{"", "task"},
	}
	for _, c := range cases {
		if got := Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlug_LongTitleTruncated(t *testing.T) {
	got := Slug(strings.Repeat("word ", 30))
	if len(got) > 50 {
		t.Fatalf("slug too long: %d chars", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("slug has trailing dash: %q", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("012-add-user-auth"); got != "add user auth" {
		t.Fatalf("Title = %q", got)
	}
	if got := Title("no-prefix"); got != "no prefix" {
		t.Fatalf("Title = %q", got)
	}
}

func TestNextNumber_EmptyRoot(t *testing.T) {
	n, err := NextNumber(filepath.Join(t.TempDir(), "specs"))
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 for missing root, got %d", n)
	}
}

func TestNextNumber_SkipsNonNumbered(t *testing.T) {
	root := t.TempDir()
	os.Mkdir(filepath.Join(root, "001-first"), 0755)
	os.Mkdir(filepath.Join(root, "007-seventh"), 0755)
	os.Mkdir(filepath.Join(root, "notes"), 0755)
	os.WriteFile(filepath.Join(root, "099-file-not-dir"), []byte("x"), 0644)

	n, err := NextNumber(root)
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8, got %d", n)
	}
}

func TestAllocate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "specs")

	dir, err := Allocate(root, "Add user auth")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if filepath.Base(dir) != "001-add-user-auth" {
		t.Fatalf("unexpected dir name: %s", filepath.Base(dir))
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}

	dir2, err := Allocate(root, "Second task")
	if err != nil {
		t.Fatalf("Allocate second: %v", err)
	}
	if filepath.Base(dir2) != "002-second-task" {
		t.Fatalf("unexpected second dir: %s", filepath.Base(dir2))
	}
}

func TestAllocate_ConcurrentDistinctNumbers(t *testing.T) {
	root := filepath.Join(t.TempDir(), "specs")

	var wg sync.WaitGroup
	dirs := make([]string, 6)
	for i := range dirs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := Allocate(root, "parallel task")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			dirs[i] = d
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if seen[d] {
			t.Fatalf("duplicate spec dir allocated: %s", d)
		}
		seen[d] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct dirs, got %d", len(seen))
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()
	m := &Metadata{SourceType: SourceGitHub, Category: "feature", ArchivedAt: &now}

	if err := SaveMetadata(dir, m); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	got := LoadMetadata(dir)
	if got.SourceType != SourceGitHub {
		t.Errorf("sourceType: got %q", got.SourceType)
	}
	if got.Category != "feature" {
		t.Errorf("category: got %q", got.Category)
	}
	if !got.Archived() {
		t.Error("expected archived")
	}
}

func TestLoadMetadata_MissingDefaultsToManual(t *testing.T) {
	m := LoadMetadata(t.TempDir())
	if m.SourceType != SourceManual {
		t.Fatalf("expected manual default, got %q", m.SourceType)
	}
	if m.Archived() {
		t.Fatal("fresh metadata must not be archived")
	}
}

func TestLoadMetadata_Corrupt(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(MetadataPath(dir), []byte("{nope"), 0644)

	m := LoadMetadata(dir)
	if m.SourceType != SourceManual {
		t.Fatalf("corrupt metadata must default to manual, got %q", m.SourceType)
	}
}

func TestRequirements_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := &Requirements{Title: "Add auth", Description: "OAuth login flow"}

	if err := SaveRequirements(dir, r); err != nil {
		t.Fatalf("SaveRequirements: %v", err)
	}

	got := LoadRequirements(dir)
	if got == nil || got.Title != "Add auth" || got.Description != "OAuth login flow" {
		t.Fatalf("unexpected requirements: %+v", got)
	}
}

func TestLoadRequirements_Missing(t *testing.T) {
	if r := LoadRequirements(t.TempDir()); r != nil {
		t.Fatalf("expected nil, got %+v", r)
	}
}

func TestReadQAReport(t *testing.T) {
	dir := t.TempDir()
	if got := ReadQAReport(dir); got != "" {
		t.Fatalf("expected empty for missing report, got %q", got)
	}

	os.WriteFile(QAReportPath(dir), []byte("Verdict: APPROVED"), 0644)
	if got := ReadQAReport(dir); got != "Verdict: APPROVED" {
		t.Fatalf("unexpected report: %q", got)
	}
}

func TestHasSpec(t *testing.T) {
	dir := t.TempDir()
	if HasSpec(dir) {
		t.Fatal("expected no spec")
	}
	os.WriteFile(SpecPath(dir), []byte("# Spec"), 0644)
	if !HasSpec(dir) {
		t.Fatal("expected spec present")
	}
}
