package logging

import (
	"context"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleLogger writes text lines to a terminal stream (stderr by default)
type ConsoleLogger struct {
	out    *lockedWriter
	level  Level
	fields Fields
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleLogger creates a logger writing to w; nil means os.Stderr
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleLogger{out: &lockedWriter{w: w}, level: level}
}

func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields on the same stream
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{out: l.out, level: l.level, fields: mergeFields(l.fields, fields)}
}

// Close does nothing; the stream is owned by the caller
func (l *ConsoleLogger) Close() error {
	return nil
}

func (l *ConsoleLogger) log(level Level, msg string, err error, fields Fields) {
	if !enabled(l.level, level) {
		return
	}
	line := formatText(time.Now(), level, msg, err, mergeFields(l.fields, fields))

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w.Write(line)
}
