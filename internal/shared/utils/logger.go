package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	logDirEnvVar     = "SOULLAB_LOG_DIR"
	serverModeEnvVar = "SOULLAB_SERVER_MODE"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

type LogCategory string

const (
	LogCategoryService LogCategory = "service"
	LogCategoryLatency LogCategory = "latency"
	LogCategoryAudit   LogCategory = "audit"
)

var (
	categoryMu      sync.Mutex
	categoryLoggers = make(map[LogCategory]*Logger)
	defaultLevel    = DEBUG
	logDirOverride  string
)

// Logger writes formatted lines to soullab-<category>.log.
type Logger struct {
	file       *os.File
	logger     *log.Logger
	level      LogLevel
	mu         *sync.Mutex
	component  string
	enableFile bool
	category   LogCategory
	logID      string
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	return NewCategorizedLogger(LogCategoryService, component)
}

// NewLatencyLogger creates a logger dedicated to latency instrumentation output.
func NewLatencyLogger(component string) *Logger {
	return NewCategorizedLogger(LogCategoryLatency, component)
}

// NewCategorizedLogger creates a logger for a specific category and component.
func NewCategorizedLogger(category LogCategory, component string) *Logger {
	base := getOrCreateCategoryLogger(category)
	return &Logger{
		file:       base.file,
		logger:     base.logger,
		level:      base.level,
		mu:         base.mu,
		component:  component,
		enableFile: base.enableFile,
		category:   category,
	}
}

// SetDefaultLevel changes the level used by category loggers created afterwards.
func SetDefaultLevel(level LogLevel) {
	categoryMu.Lock()
	defaultLevel = level
	for _, logger := range categoryLoggers {
		logger.level = level
	}
	categoryMu.Unlock()
}

// SetLogDir pins the log directory for category loggers opened afterwards.
// An empty dir restores SOULLAB_LOG_DIR / ~/.soullab/logs resolution.
func SetLogDir(dir string) {
	categoryMu.Lock()
	logDirOverride = strings.TrimSpace(dir)
	categoryMu.Unlock()
}

// ParseLevel maps a config string to a LogLevel, defaulting to INFO.
func ParseLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func getOrCreateCategoryLogger(category LogCategory) *Logger {
	categoryMu.Lock()
	defer categoryMu.Unlock()

	if logger, ok := categoryLoggers[category]; ok {
		return logger
	}

	logger := newLogger("", defaultLevel, true, category)
	categoryLoggers[category] = logger
	return logger
}

func newLogger(component string, level LogLevel, enableFile bool, category LogCategory) *Logger {
	l := &Logger{
		level:      level,
		mu:         &sync.Mutex{},
		component:  component,
		enableFile: enableFile,
		category:   category,
	}

	if enableFile {
		file, err := OpenLogFile(category)
		if err != nil {
			log.Printf("Failed to open log file: %v", err)
			return l
		}
		l.file = file
		l.logger = log.New(file, "", 0)
	}

	return l
}

func resolveLogDirectory() (string, error) {
	if logDirOverride != "" {
		return logDirOverride, nil
	}
	if override := strings.TrimSpace(os.Getenv(logDirEnvVar)); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".soullab", "logs"), nil
}

func logFileName(category LogCategory) string {
	switch category {
	case LogCategoryLatency:
		return "soullab-latency.log"
	case LogCategoryAudit:
		return "soullab-audit.log"
	default:
		return "soullab-service.log"
	}
}

// OpenLogFile opens (or creates) the log file for the given category.
func OpenLogFile(category LogCategory) (*os.File, error) {
	logDir, err := resolveLogDirectory()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(logDir, logFileName(category))
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// CloseAll closes every category log file and forgets the cached category
// loggers, so loggers created afterwards reopen their files.
func CloseAll() error {
	categoryMu.Lock()
	loggers := categoryLoggers
	categoryLoggers = make(map[LogCategory]*Logger)
	categoryMu.Unlock()

	var errs []error
	for category, logger := range loggers {
		logger.mu.Lock()
		err := logger.Close()
		logger.logger = nil
		logger.mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("close %s log: %w", category, err))
		}
	}
	return errors.Join(errs...)
}

// WithLogID returns a shallow copy of the logger that tags log lines with a log id.
func (l *Logger) WithLogID(logID string) *Logger {
	if l == nil {
		return nil
	}
	if strings.TrimSpace(logID) == "" {
		return l
	}
	clone := *l
	clone.logID = logID
	return &clone
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2026-03-01 12:34:56 [INFO] [SERVICE] [Engine] file.go:123 - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	component := l.component
	if component == "" {
		component = "SOULLAB"
	}
	category := strings.ToUpper(string(l.category))
	if category == "" {
		category = "SERVICE"
	}
	tag := ""
	if logID := strings.TrimSpace(l.logID); logID != "" {
		tag = fmt.Sprintf(" [log_id=%s]", logID)
	}
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] [%s]%s %s:%d - %s\n",
		timestamp, levelToString(level), category, component, tag, file, line, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enableFile && l.logger != nil {
		l.logger.Print(logLine)
	}
	if os.Getenv(serverModeEnvVar) == "deploy" {
		fmt.Print(logLine)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
