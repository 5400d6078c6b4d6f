package core

import "log"

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// DefaultLogger implements Logger through the standard log package
type DefaultLogger struct {
	logger *log.Logger
}

// NewDefaultLogger creates a logger writing to the standard logger
func NewDefaultLogger() Logger {
	return &DefaultLogger{logger: log.Default()}
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.logger.Printf(format, args...)
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}
