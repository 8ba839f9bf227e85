package ui

import (
	"fmt"
	"strings"
	"time"

	"xscraper/pkg/collector"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
	barWidth      = 20
)

// RunTracker keeps the latest progress of one collection run
type RunTracker struct {
	Target    string
	Limit     int
	StartTime time.Time
	Progress  collector.Progress
}

// NewRunTracker creates a tracker for target. A limit of 0 means unbounded.
func NewRunTracker(target string, limit int) *RunTracker {
	return &RunTracker{
		Target:    target,
		Limit:     limit,
		StartTime: time.Now(),
	}
}

// Update records the latest progress report
func (rt *RunTracker) Update(p collector.Progress) {
	rt.Progress = p
}

// Elapsed returns the time since the run started
func (rt *RunTracker) Elapsed() time.Duration {
	return time.Since(rt.StartTime)
}

// Rate returns collected records per minute
func (rt *RunTracker) Rate() float64 {
	minutes := rt.Elapsed().Minutes()
	if minutes == 0 {
		return 0
	}
	return float64(rt.Progress.Collected) / minutes
}

// Bar renders the collected count against the limit. Unbounded runs show
// a count only.
func (rt *RunTracker) Bar() string {
	if rt.Limit <= 0 {
		return fmt.Sprintf("%d collected", rt.Progress.Collected)
	}
	ratio := float64(rt.Progress.Collected) / float64(rt.Limit)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * barWidth)
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		rt.Progress.Collected, rt.Limit)
}

// Line renders the one-line status shown while collecting
func (rt *RunTracker) Line() string {
	line := fmt.Sprintf("%s %s • saved %d • scroll %d • %.1f/min",
		Cyan(rt.Target), rt.Bar(), rt.Progress.Persisted, rt.Progress.Iteration, rt.Rate())
	if rt.Progress.NoGrowthStreak > 0 {
		line += " • " + Yellow(fmt.Sprintf("no growth %d", rt.Progress.NoGrowthStreak))
	}
	return line
}
