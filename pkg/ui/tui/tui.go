package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"xscraper/pkg/collector"
)

// TUI is a full screen collection monitor
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a monitor; onQuit is called when the operator presses q
func NewTUI(onQuit func()) *TUI {
	model := NewModel(onQuit)
	return &TUI{
		program: tea.NewProgram(model, tea.WithAltScreen()),
		model:   model,
	}
}

// Start runs the UI until it quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the UI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) StartRun(target string, limit int) {
	t.Send(RunStartMsg{Target: target, Limit: limit})
}

func (t *TUI) UpdateProgress(target string, p collector.Progress) {
	t.Send(RunProgressMsg{Target: target, Progress: p})
}

func (t *TUI) FinishRun(target, state string, persisted int, summary string, err error) {
	t.Send(RunFinishedMsg{Target: target, State: state, Persisted: persisted, Summary: summary, Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) { t.Log("INFO", format, args...) }

func (t *TUI) LogSuccess(format string, args ...interface{}) { t.Log("SUCCESS", format, args...) }

func (t *TUI) LogWarning(format string, args ...interface{}) { t.Log("WARN", format, args...) }

func (t *TUI) LogError(format string, args ...interface{}) { t.Log("ERROR", format, args...) }

// LogWriter forwards each written line to the log panel. Pair it with an
// uncolored console logger.
func (t *TUI) LogWriter() io.Writer {
	return logWriter{t: t}
}

type logWriter struct {
	t *TUI
}

func (w logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.t.Send(LogMsg{Level: lineLevel(line), Message: line})
	}
	return len(p), nil
}

// lineLevel reads the level column of an uncolored zerolog console line
func lineLevel(line string) string {
	switch {
	case strings.Contains(line, " ERR "), strings.Contains(line, " FTL "):
		return "ERROR"
	case strings.Contains(line, " WRN "):
		return "WARN"
	default:
		return "INFO"
	}
}
