package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Hide a task from the board",
	Long:  "Archival is a metadata stamp; every file stays on disk and unarchive restores the task.",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <task-id>",
	Short: "Restore an archived task",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnarchive,
}

func runArchive(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}
	if err := taskStore().Archive(args[0]); err != nil {
		return err
	}
	fmt.Printf("Archived %s\n", args[0])
	return nil
}

func runUnarchive(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}
	if err := taskStore().Unarchive(args[0]); err != nil {
		return err
	}
	fmt.Printf("Unarchived %s\n", args[0])
	return nil
}
