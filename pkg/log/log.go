package log

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

const DefaultLoggerFlag = log.Ldate | log.Ltime | log.LUTC

var (
	defaultLogger atomic.Pointer[Logger]
	once          sync.Once
)

func init() {
	once.Do(func() {
		defaultLogger.Store(New(os.Stdout, "", DefaultLoggerFlag, LogLevelInfo))
	})
}

type LogLevel int32

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (level LogLevel) String() string {
	switch level {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a log level string into a LogLevel.
// Valid log levels are: error, warn, info, debug, trace.
func ParseLogLevel(level string) (LogLevel, error) {
	switch level {
	case "error":
		return LogLevelError, nil
	case "warn":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return LogLevelError, fmt.Errorf("unknown log level: %s", level)
	}
}

// SetDefaultLogger replaces the logger used by the package-level functions.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

func SetLevel(level LogLevel) {
	defaultLogger.Load().SetLevel(level)
}

// Logger writes one JSON object per line. The optional component
// is added to every entry so that coordinator, store and worker
// output can be told apart in a shared stream.
type Logger struct {
	logger    *log.Logger
	level     atomic.Int32
	component string
}

func New(out io.Writer, prefix string, flag int, level LogLevel) *Logger {
	l := &Logger{
		logger: log.New(out, prefix, flag),
	}
	l.level.Store(int32(level))
	return l
}

// WithComponent returns a logger sharing the same output and level
// that tags its entries with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	c := &Logger{
		logger:    l.logger,
		component: component,
	}
	c.level.Store(l.level.Load())
	return c
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Load())
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level > l.Level() {
		return
	}
	logEntry := map[string]interface{}{
		"level": level.String(),
		"msg":   fmt.Sprintf(format, args...),
	}
	if l.component != "" {
		logEntry["component"] = l.component
	}
	msgBytes, _ := json.Marshal(logEntry)
	l.logger.Print(string(msgBytes))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args...)
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(LogLevelTrace, format, args...)
}

// Component returns a tagged child of the current default logger.
func Component(name string) *Logger {
	return defaultLogger.Load().WithComponent(name)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Load().Info(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Load().Error(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Load().Warn(format, args...)
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Load().Debug(format, args...)
}

func Trace(format string, args ...interface{}) {
	defaultLogger.Load().Trace(format, args...)
}
