package boundary

import (
	"fmt"
	"sync"

	"stagehand/pkg/logging"
)

// DefaultTailSize is the number of log lines a LogTail keeps.
const DefaultTailSize = 5

// LogTail keeps the most recent warning and error log lines so the failure
// screen can show them next to the status table. Attach it with
// logging.AddSink(tail.Add).
type LogTail struct {
	mu    sync.Mutex
	size  int
	lines []string
}

// NewLogTail creates a tail keeping size lines.
func NewLogTail(size int) *LogTail {
	if size <= 0 {
		size = DefaultTailSize
	}
	return &LogTail{size: size}
}

// Add records entry if it is a warning or an error.
func (t *LogTail) Add(entry logging.LogEntry) {
	if entry.Level < logging.LevelWarn {
		return
	}
	line := fmt.Sprintf("%s %s [%s] %s", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Subsystem, entry.Message)
	if entry.Err != nil {
		line += ": " + entry.Err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.size {
		t.lines = t.lines[len(t.lines)-t.size:]
	}
}

// Lines returns the kept lines, oldest first.
func (t *LogTail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
