// Package git shells out to the git CLI for the repository checks that
// gate task execution and for the worktrees tasks run in. A task either
// executes in the main checkout or in an isolated worktree the user
// reviews afterwards.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo wraps git operations rooted at a working directory.
type Repo struct {
	workDir string
}

// New creates a Repo for the given working directory.
func New(workDir string) *Repo {
	return &Repo{workDir: workDir}
}

// StatusInfo is the repository state relevant to starting agent work.
type StatusInfo struct {
	IsGitRepo  bool
	HasCommits bool
}

// Status checks whether the directory is a git repository with at least
// one commit. Both are required before an agent run: without history
// there is nothing to diff a task's changes against.
func (r *Repo) Status() StatusInfo {
	var info StatusInfo
	info.IsGitRepo = r.run("rev-parse", "--is-inside-work-tree") == "true"
	if !info.IsGitRepo {
		return info
	}
	info.HasCommits = r.runErr("rev-parse", "--verify", "HEAD") == nil
	return info
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := r.output("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return out, nil
}

// BaseBranch returns the named branch if it exists, otherwise falls
// back to main/master, otherwise the current branch.
func (r *Repo) BaseBranch(preferred string) (string, error) {
	candidates := []string{preferred, "main", "master"}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if r.BranchExists(name) {
			return name, nil
		}
	}
	return r.CurrentBranch()
}

// BranchExists checks whether a branch resolves.
func (r *Repo) BranchExists(branch string) bool {
	return r.runErr("rev-parse", "--verify", branch) == nil
}

// CreateBranch creates a branch at the given start point without
// switching to it.
func (r *Repo) CreateBranch(branch, startPoint string) error {
	out, err := r.combined("branch", branch, startPoint)
	if err != nil {
		return fmt.Errorf("create branch %s: %s", branch, out)
	}
	return nil
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (r *Repo) HasUncommittedChanges() bool {
	return r.run("status", "--porcelain") != ""
}

// CommitAll stages and commits everything. Returns false when there was
// nothing to commit.
func (r *Repo) CommitAll(message string) (bool, error) {
	if out, err := r.combined("add", "-A"); err != nil {
		return false, fmt.Errorf("git add: %s", out)
	}
	// Nothing staged means nothing to commit.
	if r.runErr("diff", "--cached", "--quiet") == nil {
		return false, nil
	}
	if out, err := r.combined("commit", "-m", message); err != nil {
		return false, fmt.Errorf("git commit: %s", out)
	}
	return true, nil
}

// --- Worktrees ---

// WorktreePath returns where a task's worktree lives under the project
// data directory.
func WorktreePath(dataDir, specID string) string {
	return filepath.Join(dataDir, "worktrees", specID)
}

// AddWorktree creates a worktree at path on a new branch from base.
func (r *Repo) AddWorktree(path, branch, base string) error {
	out, err := r.combined("worktree", "add", "-b", branch, path, base)
	if err != nil {
		return fmt.Errorf("add worktree: %s", out)
	}
	return nil
}

// RemoveWorktree force-removes a worktree.
func (r *Repo) RemoveWorktree(path string) error {
	out, err := r.combined("worktree", "remove", path, "--force")
	if err != nil {
		return fmt.Errorf("remove worktree: %s", out)
	}
	return nil
}

// HasWorktree reports whether path is registered as a worktree.
func (r *Repo) HasWorktree(path string) bool {
	out, err := r.output("worktree", "list", "--porcelain")
	if err != nil {
		return false
	}
	abs, _ := filepath.Abs(path)
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimPrefix(line, "worktree ") == abs {
			return true
		}
	}
	return false
}

// PruneWorktrees drops stale worktree references.
func (r *Repo) PruneWorktrees() error {
	_, err := r.combined("worktree", "prune")
	return err
}

// --- command helpers ---

func (r *Repo) output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.workDir
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

func (r *Repo) combined(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.workDir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

func (r *Repo) run(args ...string) string {
	out, _ := r.output(args...)
	return out
}

func (r *Repo) runErr(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.workDir
	return cmd.Run()
}
