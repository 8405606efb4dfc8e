package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

type Fields map[string]any

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var levelNames = map[LogLevel]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

type Logger struct {
	level       LogLevel
	out         *log.Logger
	closer      io.Closer
	serviceName string
	mu          sync.RWMutex
}

// New writes to stdout and, when logDir is not empty, to a rotated file
// logDir/<service>.log.
func New(logDir, serviceName, level string) (*Logger, error) {
	var writer io.Writer = os.Stdout
	var closer io.Closer

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, serviceName+".log"),
			MaxSize:    constants.LoggerMaxSize,
			MaxBackups: constants.LoggerMaxBackups,
			MaxAge:     constants.LoggerMaxAge,
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
		closer = fileWriter
	}

	l := NewWithWriter(writer, serviceName, level)
	l.closer = closer
	return l, nil
}

func NewWithWriter(w io.Writer, serviceName, level string) *Logger {
	return &Logger{
		level:       parseLevel(level),
		out:         log.New(w, "", log.LstdFlags),
		serviceName: serviceName,
	}
}

// Discard is used by tests and by client code that runs without a log sink.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "", "critical")
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	l.level = parseLevel(level)
	l.mu.Unlock()
}

func (l *Logger) ShouldLog(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *Logger) log(level LogLevel, msg string) {
	l.logWithFields(level, nil, msg, nil)
}

func (l *Logger) logWithFields(level LogLevel, ctx context.Context, msg string, fields Fields) {
	l.mu.RLock()
	currentLevel := l.level
	service := l.serviceName
	l.mu.RUnlock()

	if level < currentLevel {
		return
	}

	prefix := "[" + levelNames[level] + "]"
	if service != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, service)
	}

	var fieldParts []string

	if ctx != nil {
		if traceID, ok := ctx.Value(constants.TraceIDKey).(string); ok && traceID != "" {
			if _, dup := fields["trace_id"]; !dup {
				fieldParts = append(fieldParts, "trace_id="+traceID)
			}
		}
	}

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, fields[k]))
		}
	}

	if len(fieldParts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(fieldParts, " "))
	}

	_, file, line, ok := runtime.Caller(3)
	if !ok {
		file = "unknown"
		line = 0
	} else {
		file = filepath.Base(file)
	}

	_ = l.out.Output(0, fmt.Sprintf("%s %s:%d %s", prefix, file, line, msg))
}

func (l *Logger) Debug(msg string)    { l.log(DEBUG, msg) }
func (l *Logger) Info(msg string)     { l.log(INFO, msg) }
func (l *Logger) Warn(msg string)     { l.log(WARNING, msg) }
func (l *Logger) Error(msg string)    { l.log(ERROR, msg) }
func (l *Logger) Critical(msg string) { l.log(CRITICAL, msg) }

func (l *Logger) Debugf(format string, args ...any) {
	l.log(DEBUG, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(INFO, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(WARNING, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(ERROR, fmt.Sprintf(format, args...))
}

func (l *Logger) Criticalf(format string, args ...any) {
	l.log(CRITICAL, fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(msg string) {
	l.log(CRITICAL, msg)
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.log(CRITICAL, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *Logger) WithFields(ctx context.Context, fields Fields) *Entry {
	return &Entry{
		logger: l,
		ctx:    ctx,
		fields: fields,
	}
}

type Entry struct {
	logger *Logger
	ctx    context.Context
	fields Fields
}

// log keeps the call depth equal to Logger.log so the reported caller is
// the code that logged.
func (e *Entry) log(level LogLevel, msg string) {
	e.logger.logWithFields(level, e.ctx, msg, e.fields)
}

func (e *Entry) Debug(msg string)    { e.log(DEBUG, msg) }
func (e *Entry) Info(msg string)     { e.log(INFO, msg) }
func (e *Entry) Warn(msg string)     { e.log(WARNING, msg) }
func (e *Entry) Error(msg string)    { e.log(ERROR, msg) }
func (e *Entry) Critical(msg string) { e.log(CRITICAL, msg) }

func (e *Entry) Debugf(format string, args ...any) {
	e.log(DEBUG, fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...any) {
	e.log(INFO, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...any) {
	e.log(WARNING, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...any) {
	e.log(ERROR, fmt.Sprintf(format, args...))
}

func (e *Entry) Criticalf(format string, args ...any) {
	e.log(CRITICAL, fmt.Sprintf(format, args...))
}

func parseLevel(value string) LogLevel {
	value = strings.TrimSpace(strings.ToUpper(value))
	switch value {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}
