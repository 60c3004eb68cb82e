package logging

import (
	"context"
	"sync"
)

// LoggerFactory builds request-scoped loggers. Installing one lets an
// embedding application attach its own fields or backend; when none is
// installed, NewLogger falls back to the process-wide logrus logger.
type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	loggerFactoryMu sync.RWMutex
	loggerFactory   LoggerFactory
)

// SetLoggerFactory installs factory process-wide. Safe to call
// concurrently with NewLogger.
func SetLoggerFactory(factory LoggerFactory) {
	loggerFactoryMu.Lock()
	defer loggerFactoryMu.Unlock()

	loggerFactory = factory
}

// GetLoggerFactory returns the installed factory, or nil.
func GetLoggerFactory() LoggerFactory {
	loggerFactoryMu.RLock()
	defer loggerFactoryMu.RUnlock()

	return loggerFactory
}
