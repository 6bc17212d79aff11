package cli

import (
	"fmt"

	"github.com/autoclaude/autoclaude/internal/store"
	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log [task-id]",
	Short: "Show the event log",
	Long:  "Without arguments, shows recent events across all tasks. With a task id, shows that task's full audit trail.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 30, "max events to show across all tasks")
}

func runLog(cmd *cobra.Command, args []string) error {
	events, err := mustEvents()
	if err != nil {
		return err
	}
	defer events.Close()

	var list []store.Event
	if len(args) == 1 {
		list, err = events.Events(args[0])
	} else {
		list, err = events.RecentEvents(logLimit)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Printf("%sNo events yet.%s\n", colorDim, colorReset)
		return nil
	}

	for _, e := range list {
		fmt.Printf("%s%s%s %s%-14s%s %s%s%s %s\n",
			colorDim, e.Timestamp.Format("2006-01-02 15:04:05"), colorReset,
			eventColor(e.Type), e.Type, colorReset,
			colorCyan, e.SpecID, colorReset,
			e.Content)
	}
	return nil
}

func eventColor(eventType string) string {
	switch eventType {
	case store.EventRecovered:
		return colorYellow
	case store.EventQAVerdict:
		return colorMagenta
	case store.EventRunStarted, store.EventRunFinished:
		return colorBlue
	}
	return colorWhite
}
