package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vw, vh := msg.Width-2, msg.Height-4
		if vw < 20 {
			vw = 20
		}
		if vh < 6 {
			vh = 6
		}
		m.detailViewport.Width = vw
		m.detailViewport.Height = vh
		return m, nil

	case tasksRefreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			m.setStatus("Failed to load tasks: " + msg.err.Error())
			return m, nil
		}
		m.all = msg.tasks
		m.rebuildColumns()
		m.rewatch()
		// Keep the detail panel in sync with the reloaded task.
		if m.currentScreen == screenDetail && m.selected != nil {
			for _, t := range m.all {
				if t.ID == m.selected.ID {
					m.selected = t
					break
				}
			}
			m.detailViewport.SetContent(m.detailContent())
		}
		return m, nil

	case taskLogMsg:
		m.selectedLog = msg.events
		m.detailViewport.SetContent(m.detailContent())
		return m, nil

	case recoveredMsg:
		r := msg.result
		if !r.Recovered {
			m.setStatus("Recovery refused: " + r.Message)
		} else {
			m.setStatus("Recovered " + r.TaskID + " → " + string(r.NewStatus))
		}
		return m, m.refreshTasks()

	case fileChangedMsg:
		cmds := []tea.Cmd{m.waitForFileChange()}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshTasks())
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		var cmds []tea.Cmd
		cmds = append(cmds, tickCmd())
		if m.statusMsg != "" && time.Since(m.statusMsgAt) > 5*time.Second {
			m.statusMsg = ""
		}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshTasks())
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentScreen == screenDetail {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left", "h":
		m.cursorCol--
		m.clampCursor()

	case "right", "l":
		m.cursorCol++
		m.clampCursor()

	case "up", "k":
		m.cursorRow--
		m.clampCursor()

	case "down", "j":
		m.cursorRow++
		m.clampCursor()

	case "enter":
		if t := m.selectedFromBoard(); t != nil {
			m.selected = t
			m.selectedLog = nil
			m.currentScreen = screenDetail
			m.detailViewport.SetContent(m.detailContent())
			m.detailViewport.GotoTop()
			return m, m.loadTaskLog(t.ID)
		}

	case "r":
		if t := m.selectedFromBoard(); t != nil {
			m.setStatus("Recovering " + t.ID + "...")
			return m, m.recoverTask(t.ID)
		}

	case "a":
		if t := m.selectedFromBoard(); t != nil {
			if err := m.tasks.Archive(t.ID); err != nil {
				m.setStatus("Archive failed: " + err.Error())
				return m, nil
			}
			m.setStatus("Archived " + t.ID)
			return m, m.refreshTasks()
		}
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc", "backspace":
		m.currentScreen = screenBoard
		m.selected = nil

	case "r":
		if m.selected != nil {
			m.setStatus("Recovering " + m.selected.ID + "...")
			return m, m.recoverTask(m.selected.ID)
		}

	default:
		// Scrolling keys go to the viewport.
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}
