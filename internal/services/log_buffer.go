package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is one line of the in-memory log kept for the dashboard
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer is a bounded circular buffer of recent log entries. It backs
// GET /api/logs so the dashboard can show activity without touching disk.
// Writes never fail and never block the logging call path.
type LogBuffer struct {
	entries []LogEntry
	next    int
	full    bool
	mu      sync.RWMutex
}

// NewLogBuffer creates a buffer holding at most size entries
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = 500
	}
	return &LogBuffer{
		entries: make([]LogEntry, size),
	}
}

// Add appends an entry, overwriting the oldest once the buffer is full
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = entry
	b.next++
	if b.next == len(b.entries) {
		b.next = 0
		b.full = true
	}
}

// Recent returns up to limit entries, newest first
func (b *LogBuffer) Recent(limit int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := b.next
	if b.full {
		size = len(b.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]LogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := b.next - 1 - i
		if idx < 0 {
			idx += len(b.entries)
		}
		out = append(out, b.entries[idx])
	}
	return out
}

// Len returns the number of buffered entries
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// LogBufferHook feeds logrus output into a LogBuffer
type LogBufferHook struct {
	buffer *LogBuffer
}

// NewLogBufferHook creates a logrus hook writing into buffer
func NewLogBufferHook(buffer *LogBuffer) *LogBufferHook {
	return &LogBufferHook{buffer: buffer}
}

// Levels implements logrus.Hook
func (h *LogBufferHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
		logrus.FatalLevel,
	}
}

// Fire implements logrus.Hook
func (h *LogBufferHook) Fire(entry *logrus.Entry) error {
	fields := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		fields[k] = v
	}
	if len(fields) == 0 {
		fields = nil
	}

	h.buffer.Add(LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    fields,
	})
	return nil
}
