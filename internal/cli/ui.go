package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/autoclaude/autoclaude/internal/agent"
	"github.com/autoclaude/autoclaude/internal/executor"
	"github.com/autoclaude/autoclaude/internal/git"
	"github.com/autoclaude/autoclaude/internal/recovery"
	"github.com/autoclaude/autoclaude/internal/tui"
	"github.com/autoclaude/autoclaude/internal/watcher"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive task board",
	Long:  "Opens a board with the five status columns, task detail panels, and one-key recovery for stuck tasks.",
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	events, err := mustEvents()
	if err != nil {
		return err
	}
	defer events.Close()

	watch, err := watcher.New()
	if err != nil {
		watch = nil // fall back to tick-based refresh
	} else {
		defer watch.Close()
	}

	projectDir, _ := os.Getwd()
	mgr := executor.NewManager(projectDir, dataDirName, cfg, events, nil, nil)

	engine := recovery.NewEngine(
		dataDirName,
		mgr,
		git.New(projectDir),
		func() bool { return agent.Available(cfg.Agent.Cmd) },
		watchOrNil(watch),
		events,
		nil,
	)

	model := tui.New(taskStore(), events, engine, watch)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// watchOrNil avoids handing the engine a typed nil inside a non-nil
// interface value.
func watchOrNil(w *watcher.Watcher) recovery.Unwatcher {
	if w == nil {
		return nil
	}
	return w
}
