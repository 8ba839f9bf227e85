package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"xscraper/pkg/collector"
)

func TestModel(t *testing.T) {
	model := NewModel(nil)

	model.StartRun("golang", 100)
	model.StartRun("@jack/posts", 0)

	if len(model.ActiveRuns()) != 2 {
		t.Errorf("Expected 2 active runs, got %d", len(model.ActiveRuns()))
	}

	model.UpdateRun("golang", collector.Progress{Iteration: 3, Collected: 40, Persisted: 40})
	run := model.runs["golang"]
	if run.Progress.Collected != 40 {
		t.Errorf("Expected 40 collected, got %d", run.Progress.Collected)
	}
	if run.Ratio() != 0.4 {
		t.Errorf("Expected ratio 0.4, got %f", run.Ratio())
	}
	if model.runs["@jack/posts"].Ratio() != -1 {
		t.Errorf("Expected unbounded run to report -1")
	}

	model.FinishRun("golang", "completed", 100, "100 records", nil)
	if run.State != RunCompleted {
		t.Errorf("Expected completed state, got %d", run.State)
	}
	if len(model.ActiveRuns()) != 1 || len(model.FinishedRuns()) != 1 {
		t.Errorf("Expected 1 active and 1 finished run")
	}

	model.FinishRun("@jack/posts", "failed", 0, "", errors.New("boom"))
	if model.runs["@jack/posts"].State != RunFailed {
		t.Errorf("Expected failed state")
	}

	_, saved, _ := model.Stats()
	if saved != 100 {
		t.Errorf("Expected 100 saved, got %d", saved)
	}

	model.AddLogMessage("INFO", "Test message")
	if len(model.logMessages) != 1 {
		t.Errorf("Expected 1 log message, got %d", len(model.logMessages))
	}
}

func TestLogTrimming(t *testing.T) {
	model := NewModel(nil)
	for i := 0; i < model.maxLogMessages+10; i++ {
		model.AddLogMessage("INFO", "line")
	}
	if len(model.logMessages) != model.maxLogMessages {
		t.Errorf("Expected %d log messages, got %d", model.maxLogMessages, len(model.logMessages))
	}
}

func TestQuitKeyStopsOnce(t *testing.T) {
	calls := 0
	model := NewModel(func() { calls++ })
	model.StartRun("golang", 10)

	q := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}

	_, cmd := model.Update(q)
	if calls != 1 {
		t.Errorf("Expected onQuit to be called once, got %d", calls)
	}
	if cmd != nil {
		t.Errorf("Expected to keep running while a run is active")
	}
	if !model.IsStopping() {
		t.Errorf("Expected model to be stopping")
	}

	_, cmd = model.Update(q)
	if calls != 1 {
		t.Errorf("Expected onQuit not to be called again, got %d", calls)
	}
	if cmd == nil {
		t.Errorf("Expected second q to quit")
	}
}

func TestQuitAfterFinalSave(t *testing.T) {
	model := NewModel(func() {})
	model.StartRun("golang", 10)
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	_, cmd := model.Update(RunFinishedMsg{Target: "golang", State: "stopped", Persisted: 4})
	if cmd == nil {
		t.Errorf("Expected the monitor to quit once the stopped run is saved")
	}
}

func TestView(t *testing.T) {
	model := NewModel(nil)
	if model.View() != "Initializing..." {
		t.Errorf("Expected initializing view before the window size is known")
	}

	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model.StartRun("golang", 10)
	model.UpdateRun("golang", collector.Progress{Iteration: 1, Collected: 5})

	view := model.View()
	if !strings.Contains(view, "golang") {
		t.Errorf("Expected view to show the active target")
	}
}

func TestFormatting(t *testing.T) {
	if FormatCount(1) != "1 record" {
		t.Errorf("Expected singular, got %s", FormatCount(1))
	}
	if FormatCount(12) != "12 records" {
		t.Errorf("Expected plural, got %s", FormatCount(12))
	}
	if FormatRate(2.5) != "2.5/min" {
		t.Errorf("Expected 2.5/min, got %s", FormatRate(2.5))
	}
	if formatDuration(65_000_000_000) != "01:05" {
		t.Errorf("Expected 01:05, got %s", formatDuration(65_000_000_000))
	}
}

func TestLineLevel(t *testing.T) {
	cases := map[string]string{
		"12:00:00 INF | Page loaded":        "INFO",
		"12:00:00 WRN | Flush failed":       "WARN",
		"12:00:00 ERR | Collection aborted": "ERROR",
	}
	for line, want := range cases {
		if got := lineLevel(line); got != want {
			t.Errorf("lineLevel(%q) = %s, want %s", line, got, want)
		}
	}
}
