package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	createDescription string
	createSource      string
)

var createCmd = &cobra.Command{
	Use:   "create \"title\"",
	Short: "Create a new task",
	Long:  "Allocates the next numbered spec directory and seeds the task's requirements.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "longer task description")
	createCmd.Flags().StringVar(&createSource, "source", "manual", "task origin: manual, github, gitlab")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if _, err := mustConfig(); err != nil {
		return err
	}

	title := strings.Join(args, " ")
	id, err := taskStore().Create(title, createDescription, createSource)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %s%s%s: %s\n", colorCyan, id, colorReset, title)
	fmt.Printf("Run it with: %sautoclaude run %s%s\n", colorDim, id, colorReset)
	return nil
}
