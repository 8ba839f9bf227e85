package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"xscraper/pkg/collector"
	"xscraper/pkg/config"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColors(false)
	t.Cleanup(func() {
		SetOutput(nil)
		SetColors(true)
		SetQuietMode(false)
	})
	return &buf
}

func TestRunTrackerBar(t *testing.T) {
	rt := NewRunTracker("lang:tr", 10)
	rt.Update(collector.Progress{Collected: 5})
	assert.Contains(t, rt.Bar(), "5/10")

	rt.Update(collector.Progress{Collected: 15})
	assert.Contains(t, rt.Bar(), "15/10")

	unbounded := NewRunTracker("lang:tr", 0)
	unbounded.Update(collector.Progress{Collected: 7})
	assert.Equal(t, "7 collected", unbounded.Bar())
}

func TestConsoleMonitorVerbose(t *testing.T) {
	buf := captureOutput(t)
	m := NewConsoleMonitor(true)

	m.StartRun("golang/posts", 50)
	m.UpdateProgress("golang/posts", collector.Progress{Iteration: 2, Collected: 12, Persisted: 12, NoGrowthStreak: 1})
	m.FinishRun("golang/posts", "completed", 12, "limit reached: 12/12", nil)

	out := buf.String()
	assert.Contains(t, out, "[COLLECTING] golang/posts (limit 50)")
	assert.Contains(t, out, "saved 12")
	assert.Contains(t, out, "no growth 1")
	assert.Contains(t, out, "[COMPLETED] golang/posts")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Target", "golang")
	PrintError("boom")

	assert.NotContains(t, buf.String(), "golang")
	assert.Contains(t, buf.String(), "boom")
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifierRespectsPreferences(t *testing.T) {
	captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifier(config.NotificationConfig{
		Enabled:     true,
		OnComplete:  true,
		OnError:     false,
		OnExhausted: true,
	}).WithSender(sender)

	n.Completed("lang:tr", "limit reached: 5/5")
	n.Failed("lang:tr", errors.New("boom"))
	n.Exhausted("lang:tr", "exhausted before limit: 80/500")

	assert.Equal(t, []string{"Collection complete", "Feed exhausted"}, sender.titles)
}

func TestNotifierDisabled(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifier(config.NotificationConfig{Enabled: false, OnComplete: true}).WithSender(sender)

	n.Completed("lang:tr", "done")

	assert.Empty(t, sender.titles)
	assert.Empty(t, buf.String())
}
