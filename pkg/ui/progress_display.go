package ui

import (
	"fmt"
	"strings"
	"sync"

	"xscraper/pkg/collector"
)

// ConsoleMonitor prints a single rewritten progress line per run, or one
// line per flush in verbose mode
type ConsoleMonitor struct {
	mu       sync.Mutex
	runs     map[string]*RunTracker
	verbose  bool
	lineOpen bool
}

// NewConsoleMonitor creates a console monitor
func NewConsoleMonitor(verbose bool) *ConsoleMonitor {
	return &ConsoleMonitor{
		runs:    make(map[string]*RunTracker),
		verbose: verbose,
	}
}

func (c *ConsoleMonitor) StartRun(target string, limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[target] = NewRunTracker(target, limit)
	c.endLine()
	limitText := "unbounded"
	if limit > 0 {
		limitText = fmt.Sprintf("%d", limit)
	}
	printf(false, "%s %s (limit %s)\n", Magenta("[COLLECTING]"), target, limitText)
}

func (c *ConsoleMonitor) UpdateProgress(target string, p collector.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt, ok := c.runs[target]
	if !ok {
		rt = NewRunTracker(target, 0)
		c.runs[target] = rt
	}
	rt.Update(p)

	if c.verbose {
		printf(false, "%s\n", rt.Line())
		return
	}
	printf(false, "\r%s\r%s", strings.Repeat(" ", 100), rt.Line())
	c.lineOpen = true
}

func (c *ConsoleMonitor) FinishRun(target, state string, persisted int, summary string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLine()

	label := Green("[" + strings.ToUpper(state) + "]")
	switch state {
	case "stopped":
		label = Yellow("[STOPPED]")
	case "failed":
		label = Red("[FAILED]")
	}
	printf(state == "failed", "%s %s • %s • %d saved\n", label, target, summary, persisted)
	if err != nil {
		printf(true, "  %s\n", Red(err.Error()))
	}
	delete(c.runs, target)
}

func (c *ConsoleMonitor) LogInfo(format string, args ...interface{}) {
	c.log(false, Cyan("ℹ"), format, args...)
}

func (c *ConsoleMonitor) LogSuccess(format string, args ...interface{}) {
	c.log(false, Green("✓"), format, args...)
}

func (c *ConsoleMonitor) LogWarning(format string, args ...interface{}) {
	c.log(false, Yellow("!"), format, args...)
}

func (c *ConsoleMonitor) LogError(format string, args ...interface{}) {
	c.log(true, Red("✗"), format, args...)
}

func (c *ConsoleMonitor) log(errorLevel bool, icon, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLine()
	printf(errorLevel, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

func (c *ConsoleMonitor) endLine() {
	if c.lineOpen {
		printf(false, "\n")
		c.lineOpen = false
	}
}
