package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages in memory so tests can assert on them.
// Loggers derived with WithField/WithFields/WithError share its buffer.
type TestLogger struct {
	*scopedTestLogger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

type captureSink struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{&scopedTestLogger{sink: &captureSink{}}}
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	messages := make([]LogMessage, len(l.sink.messages))
	copy(messages, l.sink.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.messages = l.sink.messages[:0]
	l.sink.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	return l.sink.buffer.String()
}

// scopedTestLogger carries the fields and error attached by the With* methods
type scopedTestLogger struct {
	sink   *captureSink
	fields map[string]interface{}
	err    error
}

func (l *scopedTestLogger) log(level, msg string, extra map[string]interface{}) {
	fields := l.merge(extra)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.messages = append(l.sink.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   l.err,
	})

	fmt.Fprintf(&l.sink.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(&l.sink.buffer, " fields=%v", fields)
	}
	if l.err != nil {
		fmt.Fprintf(&l.sink.buffer, " error=%v", l.err)
	}
	fmt.Fprintln(&l.sink.buffer)
}

func (l *scopedTestLogger) merge(extra map[string]interface{}) map[string]interface{} {
	if len(l.fields) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (l *scopedTestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *scopedTestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *scopedTestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *scopedTestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *scopedTestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *scopedTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *scopedTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *scopedTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *scopedTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *scopedTestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

func (l *scopedTestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *scopedTestLogger) WithFields(fields map[string]interface{}) Logger {
	return &scopedTestLogger{sink: l.sink, fields: l.merge(fields), err: l.err}
}

func (l *scopedTestLogger) WithError(err error) Logger {
	return &scopedTestLogger{sink: l.sink, fields: l.fields, err: err}
}

func (l *scopedTestLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *scopedTestLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
