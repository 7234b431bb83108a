// Package notify defines the notification sink the core reports through.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Severity of a notification.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// Sink receives user-facing messages. Rendering is the sink's concern.
type Sink interface {
	Notify(message string, severity Severity)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(message string, severity Severity)

// Notify calls f.
func (f SinkFunc) Notify(message string, severity Severity) { f(message, severity) }

// LogSink writes notifications through slog.
type LogSink struct {
	Logger *slog.Logger
}

// Notify logs error notifications at warn level and the rest at info.
func (s LogSink) Notify(message string, severity Severity) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if severity == Error {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "notification", "severity", string(severity), "message", message)
}

// Message is one recorded notification.
type Message struct {
	Text     string
	Severity Severity
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Severity, m.Text)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify records the message.
func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: message, Severity: severity})
}

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the latest notification.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset drops the recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
