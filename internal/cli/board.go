package cli

import (
	"fmt"
	"strings"

	"github.com/autoclaude/autoclaude/internal/project"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
)

var boardArchived bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the task board",
	RunE:  runBoard,
}

func init() {
	boardCmd.Flags().BoolVarP(&boardArchived, "archived", "a", false, "include archived tasks")
}

func runBoard(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	tasks, err := taskStore().List(boardArchived)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Printf("%sBoard is empty.%s Create a task: %sautoclaude create \"title\"%s\n",
			colorDim, colorReset, colorCyan, colorReset)
		return nil
	}

	// Group tasks by status.
	columns := map[status.Status][]*project.Task{}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}

	type col struct {
		status status.Status
		label  string
	}
	order := []col{
		{status.Backlog, "BACKLOG"},
		{status.InProgress, "IN PROGRESS"},
		{status.AIReview, "AI REVIEW"},
		{status.HumanReview, "HUMAN REVIEW"},
		{status.Done, "DONE"},
	}

	colWidth := 26

	// Header.
	var header, sep strings.Builder
	for _, c := range order {
		count := len(columns[c.status])
		label := fmt.Sprintf(" %s (%d)", c.label, count)
		header.WriteString(statusColor(c.status) + colorBold + label + colorReset)
		header.WriteString(strings.Repeat(" ", pad(colWidth-len(label))))
		sep.WriteString(strings.Repeat("─", colWidth))
	}
	fmt.Println(header.String())
	fmt.Println(colorDim + sep.String() + colorReset)

	// Rows.
	height := 0
	for _, c := range order {
		if n := len(columns[c.status]); n > height {
			height = n
		}
	}
	for row := 0; row < height; row++ {
		var line strings.Builder
		for _, c := range order {
			cell := ""
			visible := 0
			if row < len(columns[c.status]) {
				t := columns[c.status][row]
				text := " " + truncateCell(t.Title, colWidth-3)
				cell = text + reasonMark(t.ReviewReason)
				visible = len(text) + markLen(t.ReviewReason)
			}
			line.WriteString(cell)
			line.WriteString(strings.Repeat(" ", pad(colWidth-visible)))
		}
		fmt.Println(line.String())
	}

	return nil
}

// reasonMark is the one-character flag appended to a board cell.
func reasonMark(reason status.Reason) string {
	switch reason {
	case status.ReasonErrors, status.ReasonQARejected:
		return colorRed + "!" + colorReset
	case status.ReasonPlanReview:
		return colorCyan + "?" + colorReset
	}
	return ""
}

func markLen(reason status.Reason) int {
	if reasonMark(reason) == "" {
		return 0
	}
	return 1
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func pad(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
