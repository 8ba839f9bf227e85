package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"xscraper/pkg/browser"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Active reports whether the job has not reached a terminal state
func (s Status) Active() bool {
	return s == StatusQueued || s == StatusRunning
}

var (
	ErrNotFound      = errors.New("job not found")
	ErrRateLimited   = errors.New("too many jobs submitted, try again later")
	ErrInvalidParams = errors.New("invalid job parameters")
	ErrNotActive     = errors.New("job is not running")
)

// Params are the search options of a job, named as the API receives them
type Params struct {
	User        string `json:"user,omitempty"`
	Query       string `json:"query,omitempty"`
	Since       string `json:"since,omitempty"`
	Until       string `json:"until,omitempty"`
	Tab         string `json:"tab,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Lang        string `json:"lang,omitempty"`
	MaxNoNew    int    `json:"maxNoNew,omitempty"`
	ScrollDelay int    `json:"scrollDelay,omitempty"`
	Headless    *bool  `json:"headless,omitempty"`
}

// Validate checks the parameters can form a search
func (p Params) Validate() error {
	if strings.TrimSpace(p.User) == "" && strings.TrimSpace(p.Query) == "" {
		return fmt.Errorf("%w: user or query is required", ErrInvalidParams)
	}
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", ErrInvalidParams)
	}
	if p.MaxNoNew < 0 || p.ScrollDelay < 0 {
		return fmt.Errorf("%w: maxNoNew and scrollDelay cannot be negative", ErrInvalidParams)
	}
	switch p.Tab {
	case "", browser.TabLatest, browser.TabTop, browser.TabMedia:
	default:
		return fmt.Errorf("%w: unknown tab %q", ErrInvalidParams, p.Tab)
	}
	return nil
}

// SearchQuery converts the parameters to a browser search
func (p Params) SearchQuery() browser.SearchQuery {
	tab := p.Tab
	if tab == "" {
		tab = browser.TabLatest
	}
	return browser.SearchQuery{
		Language: p.Lang,
		From:     p.User,
		Query:    p.Query,
		Since:    p.Since,
		Until:    p.Until,
		Tab:      tab,
	}
}

// Job is one search run submitted through the API
type Job struct {
	ID      string `json:"jobId"`
	Status  Status `json:"status"`
	Params  Params `json:"params"`
	OutFile string `json:"outfile"`
	// Collected is the accumulator size after the latest flush; it never decreases
	Collected int        `json:"collected"`
	Persisted int        `json:"persisted"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Error     string     `json:"error,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	// Output holds the most recent log lines of a live job
	Output []LogLine `json:"output,omitempty"`
}
