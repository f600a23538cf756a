package logger

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MaxLogLines is the number of lines kept when the log file is trimmed
const MaxLogLines = 5000

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a level name, case-insensitively. Unknown names map to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "OFF", "NONE":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

// rotatable outputs (*os.File) are trimmed to the last maxLines lines
type rotatable interface {
	io.ReadWriteSeeker
	Truncate(size int64) error
}

// LimitedLogger writes leveled lines and keeps the log file under MaxLogLines
type LimitedLogger struct {
	mutex     sync.Mutex
	out       io.Writer
	closer    io.Closer
	level     LogLevel
	lineCount int
	maxLines  int
}

var (
	globalMu     sync.RWMutex
	globalLogger *LimitedLogger
)

// defaultLogger is used until Setup or Discard installs a global logger
var defaultLogger = &LimitedLogger{out: os.Stderr, level: LogLevelInfo}

// NewLimitedLogger creates a logger writing to file and installs it globally
func NewLimitedLogger(file *os.File, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{out: file, closer: file, level: level, maxLines: MaxLogLines}
	ll.countExistingLines()
	install(ll)
	return ll
}

// Setup opens (or creates) the log file at path and installs it as the
// global logger. The standard log package is redirected into it too.
func Setup(path string, level LogLevel) (*LimitedLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	ll := NewLimitedLogger(file, level)
	log.SetOutput(ll)
	log.SetFlags(0)
	return ll, nil
}

// Discard installs a logger that drops everything
func Discard() {
	install(&LimitedLogger{out: io.Discard, level: LogLevelOff})
}

func install(ll *LimitedLogger) {
	globalMu.Lock()
	globalLogger = ll
	globalMu.Unlock()
}

func current() *LimitedLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// SetLevel sets the logging level
func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	ll.level = level
}

// SetGlobalLevel sets the logging level on the global logger
func SetGlobalLevel(level LogLevel) {
	current().SetLevel(level)
}

func (ll *LimitedLogger) enabled(level LogLevel) bool {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	return level >= ll.level && ll.level != LogLevelOff
}

func (ll *LimitedLogger) logf(level LogLevel, format string, v ...any) {
	if !ll.enabled(level) {
		return
	}
	line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(line))
}

func (ll *LimitedLogger) Debug(format string, v ...any) { ll.logf(LogLevelDebug, format, v...) }
func (ll *LimitedLogger) Info(format string, v ...any)  { ll.logf(LogLevelInfo, format, v...) }
func (ll *LimitedLogger) Warn(format string, v ...any)  { ll.logf(LogLevelWarn, format, v...) }
func (ll *LimitedLogger) Error(format string, v ...any) { ll.logf(LogLevelError, format, v...) }

// Package-level logging functions route to the global logger

func Debug(format string, v ...any) { current().Debug(format, v...) }
func Info(format string, v ...any)  { current().Info(format, v...) }
func Warn(format string, v ...any)  { current().Warn(format, v...) }
func Error(format string, v ...any) { current().Error(format, v...) }

var noopFunc = func() {}

// Trace returns a function that logs the elapsed time when called.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	ll := current()
	if !ll.enabled(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		ll.logf(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

// Write implements io.Writer, counting lines and trimming the file when needed
func (ll *LimitedLogger) Write(p []byte) (int, error) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	n, err := ll.out.Write(p)
	if err != nil {
		return n, err
	}
	ll.lineCount += strings.Count(string(p), "\n")
	if ll.maxLines > 0 && ll.lineCount > ll.maxLines {
		ll.rotate()
	}
	return n, nil
}

// countExistingLines counts the lines already in the log file
func (ll *LimitedLogger) countExistingLines() {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	f, ok := ll.out.(rotatable)
	if !ok {
		return
	}
	f.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count
	f.Seek(0, io.SeekEnd)
}

// rotate keeps only the last maxLines lines of the log file
func (ll *LimitedLogger) rotate() {
	f, ok := ll.out.(rotatable)
	if !ok {
		ll.lineCount = 0
		return
	}

	f.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > ll.maxLines {
		lines = lines[len(lines)-ll.maxLines:]
	}

	f.Truncate(0)
	f.Seek(0, io.SeekStart)
	for _, line := range lines {
		io.WriteString(f, line+"\n")
	}
	ll.lineCount = len(lines)
}

// Close closes the underlying file, if any
func (ll *LimitedLogger) Close() error {
	if ll.closer == nil {
		return nil
	}
	return ll.closer.Close()
}
