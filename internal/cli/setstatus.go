package cli

import (
	"fmt"

	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/spf13/cobra"
)

var setStatusCmd = &cobra.Command{
	Use:   "set-status <task-id> <status>",
	Short: "Move a task to an explicit status",
	Long:  "Writes the status into the task's plan file. Valid statuses: backlog, in_progress, ai_review, human_review, done. Done is terminal.",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetStatus,
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	target := status.Status(args[1])
	if err := taskStore().SetStatus(args[0], target); err != nil {
		return err
	}

	fmt.Printf("%s → %s%s%s\n", args[0], statusColor(target), target, colorReset)
	return nil
}
