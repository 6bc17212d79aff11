package cli

import (
	"fmt"

	"github.com/autoclaude/autoclaude/internal/project"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Quick status overview",
	RunE:  runStatusCmd,
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	tasks, err := taskStore().List(false)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Printf("No tasks. Run: %sautoclaude create \"title\"%s\n", colorCyan, colorReset)
		return nil
	}

	counts := map[status.Status]int{}
	var attention []*project.Task

	for _, t := range tasks {
		counts[t.Status]++
		if t.ReviewReason == status.ReasonErrors || t.ReviewReason == status.ReasonQARejected {
			attention = append(attention, t)
		}
	}

	fmt.Printf("%sTasks: %d total%s\n", colorBold, len(tasks), colorReset)
	for _, st := range status.All() {
		fmt.Printf("  %-14s %s%d%s\n", string(st)+":", statusColor(st), counts[st], colorReset)
	}

	if len(attention) > 0 {
		fmt.Printf("\n%s⚠  Needs your attention:%s\n", colorRed+colorBold, colorReset)
		for _, t := range attention {
			fmt.Printf("  %s%s%s: %s%s\n", colorYellow, t.ID, colorReset, t.Title, reasonBadge(t.ReviewReason))
		}
	}

	return nil
}
