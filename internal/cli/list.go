package cli

import (
	"fmt"

	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks one per line",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include archived tasks")
}

func runList(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	tasks, err := taskStore().List(listAll)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks. Create one: autoclaude create \"title\"")
		return nil
	}

	for _, t := range tasks {
		done, total := 0, 0
		for _, sub := range t.Subtasks {
			total++
			if sub.Status == plan.SubtaskCompleted {
				done++
			}
		}
		progress := ""
		if total > 0 {
			progress = fmt.Sprintf(" %s%d/%d%s", colorDim, done, total, colorReset)
		}
		archived := ""
		if t.Archived {
			archived = colorDim + " (archived)" + colorReset
		}
		fmt.Printf("%s%-14s%s %s%-12s%s %s%s%s%s\n",
			colorDim, t.ID, colorReset,
			statusColor(t.Status), t.Status, colorReset,
			t.Title, reasonBadge(t.ReviewReason), progress, archived)
	}
	return nil
}
