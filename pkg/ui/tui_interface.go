package ui

import "xscraper/pkg/collector"

// Monitor receives collection events for display. Implementations must be
// safe to call from the collecting goroutine.
type Monitor interface {
	StartRun(target string, limit int)
	UpdateProgress(target string, p collector.Progress)
	FinishRun(target, state string, persisted int, summary string, err error)
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}
