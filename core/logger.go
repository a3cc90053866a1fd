package core

import (
	"fmt"
	"io"
	"log"
)

type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...any)
	Info(msg string)
	Infof(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
}

type defaultLogger struct {
	logger *log.Logger
}

// NewLogger returns a Logger writing level-prefixed lines to out.
func NewLogger(out io.Writer) Logger {
	return &defaultLogger{
		logger: log.New(out, "", log.Ldate|log.Ltime),
	}
}

func (l *defaultLogger) log(level, message string) {
	l.logger.Printf("[%s]: %s", level, message)
}

func (l *defaultLogger) Debug(msg string) { l.log("debug", msg) }
func (l *defaultLogger) Debugf(format string, args ...any) {
	l.log("debug", fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Info(msg string) { l.log("info", msg) }
func (l *defaultLogger) Infof(format string, args ...any) {
	l.log("info", fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Warn(msg string) { l.log("warn", msg) }
func (l *defaultLogger) Warnf(format string, args ...any) {
	l.log("warn", fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Error(msg string) { l.log("error", msg) }
func (l *defaultLogger) Errorf(format string, args ...any) {
	l.log("error", fmt.Sprintf(format, args...))
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return &noopLogger{} }

func (*noopLogger) Debug(string)          {}
func (*noopLogger) Debugf(string, ...any) {}
func (*noopLogger) Info(string)           {}
func (*noopLogger) Infof(string, ...any)  {}
func (*noopLogger) Warn(string)           {}
func (*noopLogger) Warnf(string, ...any)  {}
func (*noopLogger) Error(string)          {}
func (*noopLogger) Errorf(string, ...any) {}
