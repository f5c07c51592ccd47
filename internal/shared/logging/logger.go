package logging

import (
	"context"
	"reflect"

	"soullab/internal/shared/utils"
	id "soullab/internal/utils/id"
)

// Logger defines a minimal, printf-style logging contract shared by the
// engine, the fortune rules and the HTTP layer.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// NewComponentLogger returns the service logger scoped to a component.
func NewComponentLogger(component string) Logger {
	return utils.NewComponentLogger(component)
}

// NewLatencyLogger returns a logger dedicated to request latency lines.
func NewLatencyLogger(component string) Logger {
	return utils.NewLatencyLogger(component)
}

// NewAuditLogger returns a logger that writes belief-guard findings to
// soullab-audit.log so they can be reviewed apart from service noise.
func NewAuditLogger(component string) Logger {
	return utils.NewCategorizedLogger(utils.LogCategoryAudit, component)
}

// FromContext tags logger with the log id carried by ctx. Loggers that
// cannot carry a log id are returned unchanged.
func FromContext(ctx context.Context, logger Logger) Logger {
	logger = OrNop(logger)
	logID := id.LogIDFromContext(ctx)
	if logID == "" {
		return logger
	}
	if tagged, ok := logger.(*utils.Logger); ok {
		return tagged.WithLogID(logID)
	}
	return logger
}

// CloseFiles closes the category log files. Call it once, at process
// shutdown, after the last line has been written.
func CloseFiles() error {
	return utils.CloseAll()
}

type multiLogger struct {
	loggers []Logger
}

// Multi returns a logger fan-out that calls every non-nil logger in order.
func Multi(loggers ...Logger) Logger {
	flattened := make([]Logger, 0, len(loggers))
	for _, logger := range loggers {
		if IsNil(logger) {
			continue
		}
		if ml, ok := logger.(*multiLogger); ok {
			flattened = append(flattened, ml.loggers...)
			continue
		}
		flattened = append(flattened, logger)
	}
	if len(flattened) == 0 {
		return Nop()
	}
	if len(flattened) == 1 {
		return flattened[0]
	}
	return &multiLogger{loggers: flattened}
}

func (l *multiLogger) Debug(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Debug(format, args...)
	}
}

func (l *multiLogger) Info(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Info(format, args...)
	}
}

func (l *multiLogger) Warn(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Warn(format, args...)
	}
}

func (l *multiLogger) Error(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Error(format, args...)
	}
}
