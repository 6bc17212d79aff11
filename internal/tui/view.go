package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/autoclaude/autoclaude/internal/plan"
	"github.com/autoclaude/autoclaude/internal/project"
	"github.com/autoclaude/autoclaude/internal/status"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrBlue      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	clrMagenta   = lipgloss.AdaptiveColor{Light: "#86198F", Dark: "#E879F9"}
	clrWhite     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1)

	cardSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(clrHighlight).
				Padding(0, 1).
				Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

func columnColor(st status.Status) lipgloss.AdaptiveColor {
	switch st {
	case status.InProgress:
		return clrBlue
	case status.AIReview:
		return clrMagenta
	case status.HumanReview:
		return clrYellow
	case status.Done:
		return clrGreen
	}
	return clrWhite
}

func reasonColor(reason status.Reason) lipgloss.AdaptiveColor {
	switch reason {
	case status.ReasonErrors, status.ReasonQARejected:
		return clrRed
	case status.ReasonPlanReview:
		return clrHighlight
	}
	return clrGreen
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.currentScreen {
	case screenBoard:
		content = m.viewBoard()
	case screenDetail:
		content = m.viewDetail()
	}

	footer := m.viewFooter()
	if m.statusMsg != "" {
		footer = statusStyle.Render(m.statusMsg) + "\n" + footer
	}
	return content + "\n" + footer
}

func (m Model) viewBoard() string {
	colWidth := 24
	if m.width > 0 {
		if w := m.width/numColumns - 2; w > 16 {
			colWidth = w
		}
	}

	var cols []string
	for i, label := range columnLabels {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(columnColor(columnStatuses[i])).
			Render(fmt.Sprintf("%s (%d)", label, len(m.columns[i])))

		var rows []string
		rows = append(rows, header)
		for j, t := range m.columns[i] {
			style := cardStyle
			if i == m.cursorCol && j == m.cursorRow {
				style = cardSelectedStyle
			}
			rows = append(rows, style.Width(colWidth-2).Render(m.cardText(t, colWidth-4)))
		}
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return titleStyle.Render("autoclaude") + "\n\n" + board
}

func (m Model) cardText(t *project.Task, width int) string {
	title := t.Title
	if len(title) > width {
		title = title[:width-3] + "..."
	}

	line := title
	if t.ReviewReason != "" {
		line += "\n" + lipgloss.NewStyle().Foreground(reasonColor(t.ReviewReason)).
			Render(string(t.ReviewReason))
	}
	if total := len(t.Subtasks); total > 0 {
		done := 0
		for _, sub := range t.Subtasks {
			if sub.Status == plan.SubtaskCompleted {
				done++
			}
		}
		line += "\n" + dimStyle.Render(fmt.Sprintf("%d/%d subtasks", done, total))
	}
	return line
}

func (m Model) viewDetail() string {
	if m.selected == nil {
		return dimStyle.Render("no task selected")
	}
	return m.detailViewport.View()
}

// detailContent builds the scrollable body of the detail panel.
func (m Model) detailContent() string {
	t := m.selected
	if t == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(t.ID) + "  " + t.Title + "\n\n")

	sb.WriteString("  status:   ")
	sb.WriteString(lipgloss.NewStyle().Foreground(columnColor(t.Status)).Render(string(t.Status)))
	if t.ReviewReason != "" {
		sb.WriteString("  " + lipgloss.NewStyle().Foreground(reasonColor(t.ReviewReason)).
			Render("["+string(t.ReviewReason)+"]"))
	}
	sb.WriteString("\n")
	sb.WriteString("  source:   " + t.Metadata.SourceType + "\n")
	sb.WriteString("  location: " + t.Location + "\n")

	if t.Description != "" {
		sb.WriteString("\n  " + subtleStyle.Render(t.Description) + "\n")
	}

	if len(t.Subtasks) > 0 {
		sb.WriteString("\n" + titleStyle.Render("Subtasks") + "\n")
		for _, sub := range t.Subtasks {
			sb.WriteString("  " + subtaskGlyph(sub.Status) + " " + sub.Description + "\n")
		}
	} else {
		sb.WriteString("\n" + dimStyle.Render("  no implementation plan yet") + "\n")
	}

	if len(m.selectedLog) > 0 {
		sb.WriteString("\n" + titleStyle.Render("Events") + "\n")
		shown := m.selectedLog
		if len(shown) > 10 {
			shown = shown[len(shown)-10:]
		}
		for _, e := range shown {
			sb.WriteString(dimStyle.Render("  "+e.Timestamp.Format("15:04:05")) +
				" " + e.Type + " " + subtleStyle.Render(e.Content) + "\n")
		}
	}

	return sb.String()
}

func subtaskGlyph(st plan.SubtaskStatus) string {
	switch st {
	case plan.SubtaskCompleted:
		return lipgloss.NewStyle().Foreground(clrGreen).Render("✓")
	case plan.SubtaskFailed:
		return lipgloss.NewStyle().Foreground(clrRed).Render("✗")
	case plan.SubtaskInProgress:
		return lipgloss.NewStyle().Foreground(clrBlue).Render("›")
	}
	return dimStyle.Render("·")
}

func (m Model) viewFooter() string {
	keys := [][2]string{
		{"←→↑↓", "navigate"},
		{"enter", "detail"},
		{"r", "recover"},
		{"a", "archive"},
		{"q", "quit"},
	}
	if m.currentScreen == screenDetail {
		keys = [][2]string{
			{"esc", "back"},
			{"r", "recover"},
			{"q", "quit"},
		}
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k[0])+" "+footerDescStyle.Render(k[1]))
	}
	return strings.Join(parts, dimStyle.Render("  •  "))
}
