package cli

import (
	"fmt"
	"os"

	"github.com/autoclaude/autoclaude/internal/config"
	"github.com/autoclaude/autoclaude/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize autoclaude in the current directory",
	Long:  "Creates a .autoclaude/ directory with default config, database, and the specs/runs layout.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check if already initialized.
	if _, err := os.Stat(dataDirName); err == nil {
		return fmt.Errorf("autoclaude already initialized in this directory (.autoclaude/ exists)")
	}

	for _, dir := range []string{dataPath("specs"), dataPath("runs"), dataPath("worktrees")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := config.Save(dataPath("config.yaml"), config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create the database by opening it (migration runs automatically).
	events, err := store.Open(dataPath("autoclaude.db"))
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	events.Close()

	fmt.Println("Initialized autoclaude in .autoclaude/")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .autoclaude/config.yaml to pick your agent")
	fmt.Println("  2. Run: autoclaude create \"your task\"")
	fmt.Println("  3. Run: autoclaude board")

	return nil
}
