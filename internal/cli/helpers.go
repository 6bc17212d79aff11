package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/autoclaude/autoclaude/internal/config"
	"github.com/autoclaude/autoclaude/internal/project"
	"github.com/autoclaude/autoclaude/internal/status"
	"github.com/autoclaude/autoclaude/internal/store"
)

const dataDirName = ".autoclaude"

// dataPath returns the path to a file inside .autoclaude/.
func dataPath(parts ...string) string {
	elems := append([]string{dataDirName}, parts...)
	return filepath.Join(elems...)
}

// mustConfig loads the project config, returning an error if
// autoclaude is not initialized here.
func mustConfig() (*config.Config, error) {
	cfgPath := dataPath("config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("autoclaude not initialized. Run: autoclaude init")
	}
	return config.Load(cfgPath)
}

// mustEvents opens the event log database.
func mustEvents() (*store.Store, error) {
	if _, err := os.Stat(dataDirName); os.IsNotExist(err) {
		return nil, fmt.Errorf("autoclaude not initialized. Run: autoclaude init")
	}
	return store.Open(dataPath("autoclaude.db"))
}

// taskStore returns the project task store for the current directory.
func taskStore() *project.Store {
	return project.NewStore(dataDirName)
}

// statusColor maps a task status to its display color.
func statusColor(st status.Status) string {
	switch st {
	case status.Backlog:
		return colorWhite
	case status.InProgress:
		return colorBlue
	case status.AIReview:
		return colorMagenta
	case status.HumanReview:
		return colorYellow
	case status.Done:
		return colorGreen
	}
	return colorReset
}

// reasonBadge renders the review reason suffix shown next to a task.
func reasonBadge(reason status.Reason) string {
	switch reason {
	case status.ReasonErrors:
		return colorRed + " [errors]" + colorReset
	case status.ReasonQARejected:
		return colorRed + " [qa rejected]" + colorReset
	case status.ReasonPlanReview:
		return colorCyan + " [plan review]" + colorReset
	case status.ReasonCompleted:
		return colorGreen + " [completed]" + colorReset
	}
	return ""
}
