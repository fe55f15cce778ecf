// Package pathguardtest provides in-memory collaborators and a capturing
// logger for testing code that uses pathguard.
package pathguardtest

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/k0sproject/pathguard/log"
)

var _ log.Logger = (*MockLogger)(nil)

// LogEntry is a captured log call.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Value returns the value logged for key or nil.
func (e LogEntry) Value(key string) any {
	return e.Attrs[key]
}

// String returns the entry in a "LEVEL message key=value" form.
func (e LogEntry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Level.String())
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	for k, v := range e.Attrs {
		fmt.Fprintf(&sb, " %s=%v", k, v)
	}
	return sb.String()
}

// MockLogger is a log.Logger that records what it receives. The zero value is
// ready to use.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *MockLogger) record(level slog.Level, msg string, keysAndValues []any) {
	attrs := make(map[string]any)
	for i := 0; i < len(keysAndValues); i++ {
		switch kv := keysAndValues[i].(type) {
		case slog.Attr:
			attrs[kv.Key] = kv.Value.Any()
		case string:
			if i+1 < len(keysAndValues) {
				attrs[kv] = keysAndValues[i+1]
				i++
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Attrs: attrs})
}

// Entries returns a copy of the recorded entries.
func (l *MockLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Find returns the first entry with the exact message.
func (l *MockLogger) Find(msg string) (LogEntry, bool) {
	for _, e := range l.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

// Contains returns true if a message containing substr was recorded.
func (l *MockLogger) Contains(substr string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset discards the recorded entries.
func (l *MockLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Debug implements log.Logger.
func (l *MockLogger) Debug(msg string, keysAndValues ...any) {
	l.record(slog.LevelDebug, msg, keysAndValues)
}

// Info implements log.Logger.
func (l *MockLogger) Info(msg string, keysAndValues ...any) {
	l.record(slog.LevelInfo, msg, keysAndValues)
}

// Warn implements log.Logger.
func (l *MockLogger) Warn(msg string, keysAndValues ...any) {
	l.record(slog.LevelWarn, msg, keysAndValues)
}

// Error implements log.Logger.
func (l *MockLogger) Error(msg string, keysAndValues ...any) {
	l.record(slog.LevelError, msg, keysAndValues)
}
