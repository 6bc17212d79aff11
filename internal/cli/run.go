package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/executor"
	"github.com/autoclaude/autoclaude/internal/specdir"
	"github.com/spf13/cobra"
)

var (
	runParallel   bool
	runWorkers    int
	runWorktree   bool
	runBaseBranch string
)

var runCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Run a task with the configured agent",
	Long:  "Drafts the spec when the task has none yet, otherwise executes its implementation plan. Blocks until the run finishes.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runParallel, "parallel", "p", false, "run each phase's subtasks concurrently")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "parallel workers per phase (0 = config default)")
	runCmd.Flags().BoolVar(&runWorktree, "worktree", false, "execute in an isolated git worktree")
	runCmd.Flags().StringVar(&runBaseBranch, "base-branch", "", "branch the worktree starts from")
}

func runRun(cmd *cobra.Command, args []string) error {
	specID := args[0]

	cfg, err := mustConfig()
	if err != nil {
		return err
	}
	if !agent.Available(cfg.Agent.Cmd) {
		return fmt.Errorf("agent CLI %q not found in PATH", cfg.Agent.Cmd)
	}

	// Flags override the configured defaults for this run only.
	if runParallel {
		cfg.Defaults.Parallel = true
	}
	if runWorkers > 0 {
		cfg.Defaults.Workers = runWorkers
	}
	if runWorktree {
		cfg.Defaults.Worktree = true
	}
	if runBaseBranch != "" {
		cfg.Defaults.BaseBranch = runBaseBranch
	}

	events, err := mustEvents()
	if err != nil {
		return err
	}
	defer events.Close()

	projectDir, _ := os.Getwd()
	notify := func(id, message string) {
		fmt.Printf("%s[%s]%s %s\n", colorDim, id, colorReset, message)
	}
	mgr := executor.NewManager(projectDir, dataDirName, cfg, events, nil, notify)

	specDir := filepath.Join(dataDirName, "specs", specID)
	if specdir.HasSpec(specDir) {
		fmt.Printf("Executing plan for %s%s%s...\n", colorCyan, specID, colorReset)
		err = mgr.StartTaskExecution(specID)
	} else {
		fmt.Printf("Drafting spec for %s%s%s...\n", colorCyan, specID, colorReset)
		err = mgr.StartSpecCreation(specID)
	}
	if err != nil {
		return err
	}
	mgr.Wait(specID)

	task, err := taskStore().Load(specID)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s%s%s%s\n", specID, statusColor(task.Status), task.Status, colorReset, reasonBadge(task.ReviewReason))
	return nil
}
