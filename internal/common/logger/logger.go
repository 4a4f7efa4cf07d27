package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/obentoo/checkbump/internal/common/output"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet // No output
)

// RootName is the name of the default logger
const RootName = "checkbump"

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

// sink is shared by a logger and all loggers derived from it with Named
type sink struct {
	mu         sync.Mutex
	level      Level
	output     io.Writer
	fileOutput *os.File
	nowFunc    func() time.Time
}

// Logger handles application logging.
// Lines are written as "[2006-01-02 15:04:05] name.LEVEL: message".
type Logger struct {
	name string
	sink *sink
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a logger with the given name writing to w at Info level
func New(name string, w io.Writer) *Logger {
	return &Logger{
		name: name,
		sink: &sink{
			level:   LevelInfo,
			output:  w,
			nowFunc: time.Now,
		},
	}
}

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(RootName, os.Stderr)
	})
	return defaultLogger
}

// Named returns a child logger ("checkbump" -> "checkbump.probe").
// The child shares level and outputs with its parent.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: l.name + "." + name, sink: l.sink}
}

// Name returns the dotted logger name
func (l *Logger) Name() string {
	return l.name
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current logging level
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetOutput replaces the terminal writer
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// SetVerbose enables debug output
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.SetLevel(LevelDebug)
	}
}

// SetQuiet disables all output except errors
func (l *Logger) SetQuiet(quiet bool) {
	if quiet {
		l.SetLevel(LevelError)
	}
}

// EnableFileLogging appends every log line, regardless of level, to path.
// An empty path selects checkbump.log in LogDir.
func (l *Logger) EnableFileLogging(path string) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if path == "" {
		logDir, err := LogDir()
		if err != nil {
			return err
		}
		path = filepath.Join(logDir, "checkbump.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.sink.fileOutput = f
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.fileOutput != nil {
		l.sink.fileOutput.Close()
		l.sink.fileOutput = nil
	}
}

// LogDir returns the log directory path
func LogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Use XDG_STATE_HOME for logs (standard for runtime data)
	xdgState := os.Getenv("XDG_STATE_HOME")
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	return filepath.Join(xdgState, "checkbump", "logs"), nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	timestamp := s.nowFunc().Format("2006-01-02 15:04:05")
	levelName := levelNames[level]
	msg := fmt.Sprintf(format, args...)

	if level >= s.level && s.output != nil {
		fmt.Fprintf(s.output, "[%s] %s.%s: %s\n", timestamp, l.name, output.SprintFor(s.output, output.LevelColor(levelName), levelName), msg)
	}

	if s.fileOutput != nil {
		fmt.Fprintf(s.fileOutput, "[%s] %s.%s: %s\n", timestamp, l.name, levelName, msg)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
func Named(name string) *Logger                { return Default().Named(name) }
func SetVerbose(v bool)                        { Default().SetVerbose(v) }
func SetQuiet(q bool)                          { Default().SetQuiet(q) }
