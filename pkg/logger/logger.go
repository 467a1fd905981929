package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/killallgit/partstream/pkg/config"
	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger provides a unified logging interface
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	zl     zerolog.Logger
	file   *os.File
	stderr io.Writer
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init initializes the default logger from the global settings
func Init() error {
	settings := config.Get()
	l, err := New(ParseLevel(settings.Logging.Level), settings.Logging.LogFile, settings.Logging.Persist)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetDefault(l)
	return nil
}

// New creates a Logger writing JSON lines to logFile. Relative paths are
// resolved against the settings directory. When persist is false the file
// is truncated.
func New(level LogLevel, logFile string, persist bool) (*Logger, error) {
	logPath := logFile
	if !filepath.IsAbs(logPath) {
		logPath = config.BuildSettingsPath(filepath.Base(logPath))
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if persist {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(level, file)
	l.file = file
	return l, nil
}

// NewWithWriter creates a Logger writing to w
func NewWithWriter(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		zl:     zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger(),
		stderr: os.Stderr,
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel converts a string level to LogLevel
func ParseLevel(levelStr string) LogLevel {
	switch levelStr {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	message := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl.WithLevel(level.zerolog()).Msg(message)

	// errors also go to stderr
	if level >= LevelError && l.stderr != nil {
		fmt.Fprintf(l.stderr, "[%s] %s\n", level.String(), message)
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

// ComponentLogger logs structured key/value pairs tagged with a component
type ComponentLogger struct {
	zl zerolog.Logger
}

// WithComponent returns a component logger backed by the default logger
func WithComponent(name string) *ComponentLogger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultLogger == nil {
		return &ComponentLogger{zl: zerolog.Nop()}
	}
	return &ComponentLogger{zl: defaultLogger.zl.With().Str("component", name).Logger()}
}

// Debug logs msg with alternating key/value pairs
func (c *ComponentLogger) Debug(msg string, kv ...interface{}) {
	c.zl.Debug().Fields(kv).Msg(msg)
}

// Info logs msg with alternating key/value pairs
func (c *ComponentLogger) Info(msg string, kv ...interface{}) {
	c.zl.Info().Fields(kv).Msg(msg)
}

// Warn logs msg with alternating key/value pairs
func (c *ComponentLogger) Warn(msg string, kv ...interface{}) {
	c.zl.Warn().Fields(kv).Msg(msg)
}

// Error logs msg with alternating key/value pairs
func (c *ComponentLogger) Error(msg string, kv ...interface{}) {
	c.zl.Error().Fields(kv).Msg(msg)
}

// Package-level convenience functions using the default logger

// SetDefault replaces the default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debug(format, args...)
	}
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Info(format, args...)
	}
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warn(format, args...)
	}
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Error(format, args...)
	}
}

// SetOutput sets the output writer for the default logger (useful for testing)
func SetOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		defaultLogger.zl = defaultLogger.zl.Output(w)
		defaultLogger.stderr = nil
	}
}

// Close closes the default logger
func Close() error {
	if l := current(); l != nil {
		return l.Close()
	}
	return nil
}
