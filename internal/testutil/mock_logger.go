// Package testutil provides common test utilities.
package testutil

import (
	"sync"

	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry so tests can
// assert on logging behaviour.
type MockLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// LogMessage is a single captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{Messages: make([]LogMessage, 0)}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

// Debug implements logging.Logger.
func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }

// Info implements logging.Logger.
func (m *MockLogger) Info(msg string, fields ...logging.Field) { m.log("info", msg, fields) }

// Warn implements logging.Logger.
func (m *MockLogger) Warn(msg string, fields ...logging.Field) { m.log("warn", msg, fields) }

// Error implements logging.Logger.
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

// With implements logging.Logger.  Field context is not tracked; the same
// recorder is returned.
func (m *MockLogger) With(_ ...logging.Field) logging.Logger { return m }

// Named implements logging.Logger.
func (m *MockLogger) Named(_ string) logging.Logger { return m }

// Sync implements logging.Logger.
func (m *MockLogger) Sync() error { return nil }

// MessagesAtLevel returns the captured messages of one level.
func (m *MockLogger) MessagesAtLevel(level string) []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogMessage
	for _, msg := range m.Messages {
		if msg.Level == level {
			out = append(out, msg)
		}
	}
	return out
}

// Reset discards all captured messages.
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = m.Messages[:0]
}
