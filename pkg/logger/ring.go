package logger

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// Ring is a logrus hook retaining the most recent entries in memory.
type Ring struct {
	mu      sync.Mutex
	entries []core.LogEntry
	next    int
	full    bool
}

// NewRing creates a ring holding up to size entries. size <= 0 uses DefaultRingSize.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{entries: make([]core.LogEntry, size)}
}

// Levels implements logrus.Hook.
func (r *Ring) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (r *Ring) Fire(e *logrus.Entry) error {
	entry := core.LogEntry{
		Timestamp: e.Time,
		Level:     levelName(e.Level),
		Message:   e.Message,
	}
	if len(e.Data) > 0 {
		entry.Fields = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			entry.Fields[k] = fmt.Sprint(v)
		}
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return nil
}

// Len returns the number of retained entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Cap returns the ring's capacity.
func (r *Ring) Cap() int {
	return len(r.entries)
}

// Entries returns up to limit of the newest entries, oldest first.
func (r *Ring) Entries(limit int) []core.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	start := 0
	if r.full {
		n = len(r.entries)
		start = r.next
	}
	if limit > 0 && limit < n {
		start = (start + n - limit) % len(r.entries)
		n = limit
	}

	out := make([]core.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

func levelName(l logrus.Level) string {
	switch l {
	case logrus.WarnLevel:
		return "warn"
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "error"
	case logrus.DebugLevel, logrus.TraceLevel:
		return "debug"
	default:
		return "info"
	}
}
