package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xscraper/pkg/collector"
)

// RunState is the display state of a collection run
type RunState int

const (
	RunActive RunState = iota
	RunCompleted
	RunStopped
	RunFailed
)

// RunItem is one collection run shown in the monitor
type RunItem struct {
	Target    string
	Limit     int
	Progress  collector.Progress
	State     RunState
	Persisted int
	Summary   string
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Model represents the TUI model
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	runs     map[string]*RunItem
	runOrder []string

	sessionStartTime time.Time

	width          int
	height         int
	showHelp       bool
	stopping       bool
	onQuit         func()
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a monitor model. onQuit is called once when the
// operator presses q; it should stop the running collection.
func NewModel(onQuit func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return &Model{
		spinner:          s,
		bar:              progress.New(progress.WithGradient(string(neonMagenta), string(neonGreen))),
		runs:             make(map[string]*RunItem),
		sessionStartTime: time.Now(),
		onQuit:           onQuit,
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartRun registers a run. Restarting a known target resets it.
func (m *Model) StartRun(target string, limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[target]; !ok {
		m.runOrder = append(m.runOrder, target)
	}
	m.runs[target] = &RunItem{
		Target:    target,
		Limit:     limit,
		State:     RunActive,
		StartTime: time.Now(),
	}
}

// UpdateRun records the latest progress of a run
func (m *Model) UpdateRun(target string, p collector.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run, ok := m.runs[target]; ok {
		run.Progress = p
		run.Persisted = p.Persisted
	}
}

// FinishRun marks a run as ended in the given state
func (m *Model) FinishRun(target, state string, persisted int, summary string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[target]
	if !ok {
		return
	}
	switch state {
	case "completed":
		run.State = RunCompleted
	case "stopped":
		run.State = RunStopped
	default:
		run.State = RunFailed
	}
	run.Persisted = persisted
	run.Summary = summary
	run.Error = err
	run.EndTime = time.Now()
}

// AddLogMessage adds a log message to the display
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var color lipgloss.Color
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	default:
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// ActiveRuns returns the runs still collecting
func (m *Model) ActiveRuns() []*RunItem {
	return m.filter(func(r *RunItem) bool { return r.State == RunActive })
}

// FinishedRuns returns the runs that have ended
func (m *Model) FinishedRuns() []*RunItem {
	return m.filter(func(r *RunItem) bool { return r.State != RunActive })
}

func (m *Model) filter(keep func(*RunItem) bool) []*RunItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*RunItem
	for _, target := range m.runOrder {
		if run := m.runs[target]; run != nil && keep(run) {
			out = append(out, run)
		}
	}
	return out
}

// Stats returns the records collected by active runs, the records saved
// across all runs and the overall collection rate per minute
func (m *Model) Stats() (collecting, saved int, perMinute float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, run := range m.runs {
		if run.State == RunActive {
			collecting += run.Progress.Collected
		}
		saved += run.Persisted
	}
	if minutes := time.Since(m.sessionStartTime).Minutes(); minutes > 0 {
		perMinute = float64(saved) / minutes
	}
	return collecting, saved, perMinute
}

// IsStopping reports whether the operator asked to stop
func (m *Model) IsStopping() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopping
}

// requestStop runs onQuit the first time and reports whether it did
func (m *Model) requestStop() bool {
	m.mu.Lock()
	first := !m.stopping
	m.stopping = true
	onQuit := m.onQuit
	m.mu.Unlock()

	if first && onQuit != nil {
		onQuit()
	}
	return first
}

// Ratio returns the fraction of the limit collected, or -1 when unbounded
func (r *RunItem) Ratio() float64 {
	if r.Limit <= 0 {
		return -1
	}
	ratio := float64(r.Progress.Collected) / float64(r.Limit)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// FormatCount formats a record count with a unit
func FormatCount(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

// FormatRate formats records per minute
func FormatRate(perMinute float64) string {
	return fmt.Sprintf("%.1f/min", perMinute)
}
