package cli

import (
	"fmt"
	"os"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/executor"
	"github.com/autoclaude/autoclaude/internal/git"
	"github.com/autoclaude/autoclaude/internal/recovery"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/spf13/cobra"
)

var (
	recoverRestart bool
	recoverTarget  string
)

var recoverCmd = &cobra.Command{
	Use:   "recover <task-id>",
	Short: "Repair a task a crashed agent left behind",
	Long:  "Resets interrupted subtasks to pending, recomputes the task's status from what actually finished, and optionally relaunches the agent.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecover,
}

func init() {
	recoverCmd.Flags().BoolVar(&recoverRestart, "restart", false, "relaunch the agent after recovery")
	recoverCmd.Flags().StringVar(&recoverTarget, "status", "", "force the recovered status instead of deriving it")
}

func runRecover(cmd *cobra.Command, args []string) error {
	specID := args[0]

	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	events, err := mustEvents()
	if err != nil {
		return err
	}
	defer events.Close()

	var target status.Status
	if recoverTarget != "" {
		target = status.Status(recoverTarget)
		if !target.Valid() {
			return fmt.Errorf("invalid status %q", recoverTarget)
		}
	}

	projectDir, _ := os.Getwd()
	mgr := executor.NewManager(projectDir, dataDirName, cfg, events, nil, nil)

	engine := recovery.NewEngine(
		dataDirName,
		mgr,
		git.New(projectDir),
		func() bool { return agent.Available(cfg.Agent.Cmd) },
		nil,
		events,
		nil,
	)

	res := engine.Recover(specID, recovery.Options{
		TargetStatus: target,
		AutoRestart:  recoverRestart,
	})

	if !res.Recovered {
		return fmt.Errorf("recovery failed: %s", res.Message)
	}

	fmt.Printf("Recovered %s%s%s → %s%s%s\n", colorCyan, specID, colorReset,
		statusColor(res.NewStatus), res.NewStatus, colorReset)
	if res.ResetSubtasks > 0 {
		fmt.Printf("  reset %d interrupted subtask(s)\n", res.ResetSubtasks)
	}
	if res.Message != "" {
		fmt.Printf("  %s%s%s\n", colorDim, res.Message, colorReset)
	}
	if res.AutoRestarted {
		fmt.Println("  agent relaunched; the run continues in the background")
		mgr.Wait(specID)
	}
	return nil
}
