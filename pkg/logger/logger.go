// Package logger is the process-wide logger for the agent bridge.
//
// Messages go to a log file (when Init was called) and to an in-memory ring
// that the "logs" agent action reads back. Before Init, warnings and errors
// go to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// DefaultRingSize is the number of entries retained for the logs action.
const DefaultRingSize = 500

var (
	globalLogger = newLogger(os.Stderr, logrus.WarnLevel)
	logFile      *os.File
	ring         = NewRing(DefaultRingSize)
	mu           sync.Mutex
)

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return l
}

// Init initializes the global logger with the specified log file path.
// An empty path keeps file output disabled but still feeds the ring.
// The ring is emptied.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	globalLogger = newLogger(io.Discard, logrus.InfoLevel)
	ring = NewRing(ring.Cap())
	globalLogger.AddHook(ring)

	if logPath == "" {
		return nil
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger.SetOutput(f)

	return nil
}

// SetLevel parses and applies a level name ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	mu.Lock()
	globalLogger.SetLevel(lvl)
	mu.Unlock()
	return nil
}

// SetRingSize replaces the in-memory ring with an empty one of size n.
func SetRingSize(n int) {
	mu.Lock()
	defer mu.Unlock()

	ring = NewRing(n)
	globalLogger.ReplaceHooks(make(logrus.LevelHooks))
	globalLogger.AddHook(ring)
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger.SetOutput(io.Discard)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return current().WithFields(fields)
}

// Entries returns up to limit of the most recent log entries, oldest first.
// A limit <= 0 returns everything retained.
func Entries(limit int) []core.LogEntry {
	mu.Lock()
	r := ring
	mu.Unlock()
	return r.Entries(limit)
}

func current() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

func init() {
	globalLogger.AddHook(ring)
}
