package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs a served API request
func LogRequest(method, path string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("HTTP request client error", fields)
	default:
		GetLogger().DebugWithFields("HTTP request completed", fields)
	}
}

// LogFlush logs the result of one read-merge-write cycle
func LogFlush(l Logger, path string, added, total int, err error) {
	fields := map[string]interface{}{
		"store": path,
		"added": added,
		"total": total,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Flush failed", fields)
		return
	}
	l.DebugWithFields("Flushed accumulator", fields)
}

// LogScroll logs one scroll iteration of the collection loop
func LogScroll(l Logger, iteration int, height int64, streak, collected int) {
	l.DebugWithFields("Scrolled feed", map[string]interface{}{
		"iteration": iteration,
		"height":    height,
		"streak":    streak,
		"collected": collected,
	})
}

// LogRunOutcome logs the terminal state of a collection run
func LogRunOutcome(l Logger, target, state string, persisted int, err error) {
	fields := map[string]interface{}{
		"target":    target,
		"state":     state,
		"persisted": persisted,
	}
	switch {
	case err != nil:
		l.WithError(err).ErrorWithFields("Collection run ended", fields)
	case state == "stopped":
		l.WarnWithFields("Collection run ended", fields)
	default:
		l.InfoWithFields("Collection run ended", fields)
	}
}

// LogRateLimit logs a rejected job submission
func LogRateLimit(remote string) {
	GetLogger().WithFields(map[string]interface{}{
		"remote": remote,
		"action": "rate_limited",
	}).Warn("Job submission throttled")
}

// LogScrapeProgress logs collection progress against an optional limit
func LogScrapeProgress(target string, collected, limit int) {
	fields := map[string]interface{}{
		"target":    target,
		"collected": collected,
	}
	if limit > 0 {
		fields["limit"] = limit
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(collected)/float64(limit)*100)
	}
	GetLogger().InfoWithFields("Collection progress", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
