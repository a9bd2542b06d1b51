// Package logging provides the structured logger used across the
// pipeline, the binning context and the status server.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of a log level.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger provides structured, leveled logging with chainable fields.
type Logger struct {
	level      Level
	output     io.Writer
	fields     map[string]interface{}
	timeFormat string
}

// New creates a new logger writing to output at the given minimum level.
func New(level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:      level,
		output:     output,
		fields:     make(map[string]interface{}),
		timeFormat: time.RFC3339,
	}
}

// NewDefault creates a logger with default settings (INFO, stdout).
func NewDefault() *Logger {
	return New(INFO, os.Stdout)
}

// WithFields returns a new logger with additional fields merged in.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &Logger{
		level:      l.level,
		output:     l.output,
		fields:     newFields,
		timeFormat: l.timeFormat,
	}
}

// WithField returns a new logger with one additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.log(DEBUG, msg, fields...) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.log(INFO, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.log(WARN, msg, fields...) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.log(ERROR, msg, fields...) }

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.log(FATAL, msg, fields...)
	os.Exit(1)
}

func (l *Logger) log(level Level, msg string, extraFields ...map[string]interface{}) {
	if level < l.level {
		return
	}

	allFields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		allFields[k] = v
	}
	for _, fields := range extraFields {
		for k, v := range fields {
			allFields[k] = v
		}
	}

	if level >= WARN {
		if _, file, line, ok := runtime.Caller(2); ok {
			allFields["file"] = fmt.Sprintf("%s:%d", file, line)
		}
	}

	timestamp := time.Now().Format(l.timeFormat)
	entry := fmt.Sprintf("[%s] %s: %s", timestamp, level.String(), msg)

	if len(allFields) > 0 {
		entry += " |"
		for k, v := range allFields {
			entry += fmt.Sprintf(" %s=%v", k, v)
		}
	}
	entry += "\n"

	l.output.Write([]byte(entry))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.Fatal(fmt.Sprintf(format, args...)) }

// Run logs the start and end of an operation, including its duration
// and, on failure, the returned error.
func (l *Logger) Run(operation string, fn func() error) error {
	start := time.Now()
	l.Info(fmt.Sprintf("starting %s", operation))

	err := fn()

	duration := time.Since(start)
	if err != nil {
		l.Error(fmt.Sprintf("%s failed", operation), map[string]interface{}{
			"duration": duration,
			"error":    err.Error(),
		})
	} else {
		l.Info(fmt.Sprintf("%s completed", operation), map[string]interface{}{
			"duration": duration,
		})
	}
	return err
}

var global = NewDefault()

// SetGlobal replaces the package-level default logger.
func SetGlobal(logger *Logger) { global = logger }

// Global returns the package-level default logger.
func Global() *Logger { return global }

func Debug(msg string, fields ...map[string]interface{}) { global.Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { global.Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { global.Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { global.Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { global.Fatal(msg, fields...) }

// ParseLevel parses a log level name, defaulting to INFO on no match.
func ParseLevel(level string) Level {
	switch level {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	case "FATAL", "fatal":
		return FATAL
	default:
		log.Printf("unknown log level %q, defaulting to INFO", level)
		return INFO
	}
}

// MultiOutput combines stdout with a file writer, used when -log is set.
func MultiOutput(path string) (io.Writer, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), f, nil
}
