package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{m.renderLogo()}

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftColumn(),
		"  ",
		m.renderLogsPanel((m.width-4)/2),
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("q stop and save • ? help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔════════════════════════════════════════════╗
║  X S C R A P E R  ·  feed collection monitor ║
╚════════════════════════════════════════════╝`
	return logoStyle.Width(m.width).Render(logo)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderActiveRunsPanel(width),
		m.renderFinishedPanel(width),
	)
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" SESSION ")
	collecting, saved, rate := m.Stats()

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(time.Since(m.sessionStartTime)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Collecting:"), statsValueStyle.Render(FormatCount(collecting))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Saved:"), statsValueStyle.Render(FormatCount(saved))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), speedStyle.Render(FormatRate(rate))),
	}
	if m.IsStopping() {
		stats = append(stats, warningStyle.Render("■  STOPPING, saving..."))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderActiveRunsPanel(width int) string {
	title := titleStyle.Render(" COLLECTING ")

	active := m.ActiveRuns()
	if len(active) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No active runs")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var items []string
	for _, run := range active {
		items = append(items, m.renderRunItem(run, width-4))
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m *Model) renderRunItem(run *RunItem, width int) string {
	info := fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		queueItemActiveStyle.Render(run.Target),
		lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("scroll %d • saved %d", run.Progress.Iteration, run.Persisted)),
	)
	if run.Progress.NoGrowthStreak > 0 {
		info += " " + warningStyle.Render(fmt.Sprintf("no growth %d", run.Progress.NoGrowthStreak))
	}

	ratio := run.Ratio()
	if ratio < 0 {
		return lipgloss.JoinVertical(lipgloss.Left, info, statsValueStyle.Render(FormatCount(run.Progress.Collected)))
	}

	bar := m.bar
	bar.Width = width - 20
	if bar.Width < 10 {
		bar.Width = 10
	}
	counts := fmt.Sprintf(" %d/%d", run.Progress.Collected, run.Limit)
	return lipgloss.JoinVertical(lipgloss.Left, info, bar.ViewAs(ratio)+statsValueStyle.Render(counts))
}

func (m *Model) renderFinishedPanel(width int) string {
	title := titleStyle.Render(" FINISHED ")

	finished := m.FinishedRuns()
	if len(finished) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing finished yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	start := len(finished) - 5
	if start < 0 {
		start = 0
	}
	var items []string
	for _, run := range finished[start:] {
		var line string
		switch run.State {
		case RunCompleted:
			line = successStyle.Render("✓ ") + queueItemCompletedStyle.Render(run.Target+" • "+run.Summary)
		case RunStopped:
			line = warningStyle.Render("■ ") + queueItemStyle.Render(fmt.Sprintf("%s • %s saved", run.Target, FormatCount(run.Persisted)))
		default:
			line = errorStyle.Render("✗ ") + queueItemStyle.Render(run.Target)
		}
		items = append(items, line)
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 12
	if start < 0 {
		start = 0
	}

	var logs []string
	maxMsgLen := width - 25
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		text := log.Message
		if maxMsgLen > 3 && len(text) > maxMsgLen {
			text = text[:maxMsgLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 12
	if logsHeight < 5 {
		logsHeight = 5
	}
	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop collecting and save (press again to close)
    ctrl+l   - Clear log
    ?        - Toggle this help

  Status:
    ` + successStyle.Render("✓") + `  completed    ` + warningStyle.Render("■") + `  stopped    ` + errorStyle.Render("✗") + `  failed
`
	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
