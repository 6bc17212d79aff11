package cli

import (
	"fmt"

	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	task, err := taskStore().Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s%s%s  %s%s\n", colorBold, task.ID, colorReset, task.Title, reasonBadge(task.ReviewReason))
	fmt.Printf("  status:   %s%s%s\n", statusColor(task.Status), task.Status, colorReset)
	fmt.Printf("  source:   %s\n", task.Metadata.SourceType)
	fmt.Printf("  location: %s\n", task.Location)
	if task.Archived {
		fmt.Printf("  %sarchived%s\n", colorDim, colorReset)
	}
	if task.Description != "" {
		fmt.Printf("\n  %s\n", task.Description)
	}

	if len(task.Subtasks) == 0 {
		fmt.Printf("\n%sNo implementation plan yet.%s\n", colorDim, colorReset)
		return nil
	}

	fmt.Printf("\n%sSubtasks:%s\n", colorBold, colorReset)
	for _, sub := range task.Subtasks {
		fmt.Printf("  %s %s\n", subtaskMark(sub.Status), sub.Description)
	}

	return nil
}

func subtaskMark(st plan.SubtaskStatus) string {
	switch st {
	case plan.SubtaskCompleted:
		return colorGreen + "✓" + colorReset
	case plan.SubtaskFailed:
		return colorRed + "✗" + colorReset
	case plan.SubtaskInProgress:
		return colorBlue + "›" + colorReset
	}
	return colorDim + "·" + colorReset
}
