package jobs

import (
	"strings"
	"sync"
	"time"
)

// LogLine is one line of job output
type LogLine struct {
	Time    time.Time `json:"time"`
	Text    string    `json:"text"`
	IsError bool      `json:"isError,omitempty"`
}

// LogRing keeps the last max lines written to it. It implements io.Writer
// so a job logger can write straight into it.
type LogRing struct {
	mu    sync.Mutex
	lines []LogLine
	max   int
}

func NewLogRing(max int) *LogRing {
	if max < 1 {
		max = 1
	}
	return &LogRing{max: max}
}

// Write splits p into lines. Lines logged at error level are flagged.
func (r *LogRing) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.add(line, strings.Contains(line, " ERR ") || strings.Contains(line, " FTL "))
	}
	return len(p), nil
}

// Add appends one line
func (r *LogRing) Add(text string, isError bool) {
	r.add(text, isError)
}

func (r *LogRing) add(text string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, LogLine{Time: time.Now().UTC(), Text: text, IsError: isError})
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

// Lines returns a copy of the retained lines, oldest first
func (r *LogRing) Lines() []LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LogLine, len(r.lines))
	copy(out, r.lines)
	return out
}
