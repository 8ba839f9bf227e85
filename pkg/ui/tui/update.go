package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"xscraper/pkg/collector"
)

// RunStartMsg is sent when a collection run starts
type RunStartMsg struct {
	Target string
	Limit  int
}

// RunProgressMsg is sent after every flush of a run
type RunProgressMsg struct {
	Target   string
	Progress collector.Progress
}

// RunFinishedMsg is sent when a run reaches its terminal state
type RunFinishedMsg struct {
	Target    string
	State     string
	Persisted int
	Summary   string
	Err       error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case RunStartMsg:
		m.StartRun(msg.Target, msg.Limit)
		m.AddLogMessage("INFO", "Collecting "+msg.Target)
		return m, nil

	case RunProgressMsg:
		m.UpdateRun(msg.Target, msg.Progress)
		return m, nil

	case RunFinishedMsg:
		m.FinishRun(msg.Target, msg.State, msg.Persisted, msg.Summary, msg.Err)
		switch msg.State {
		case "completed":
			m.AddLogMessage("SUCCESS", fmt.Sprintf("%s: %s", msg.Target, msg.Summary))
		case "stopped":
			m.AddLogMessage("WARN", fmt.Sprintf("%s stopped with %s saved", msg.Target, FormatCount(msg.Persisted)))
		default:
			m.AddLogMessage("ERROR", fmt.Sprintf("%s failed: %v", msg.Target, msg.Err))
		}
		if m.IsStopping() && len(m.ActiveRuns()) == 0 {
			return m, tea.Quit
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input. The first q stops collection and
// waits for the final save; a second q closes the monitor at once.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.requestStop() || len(m.ActiveRuns()) == 0 {
			return m, tea.Quit
		}
		m.AddLogMessage("WARN", "Stop requested, saving collected records...")
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
