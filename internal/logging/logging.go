// Package logging holds the process-wide structured logger shared by the
// harness, the reference server and the CLIs.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

// Config selects the level and output format of the logger.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DefaultConfig returns console output at info level, overridden by
// DIMDIM_LOG_LEVEL and DIMDIM_LOG_FORMAT when set.
func DefaultConfig() Config {
	cfg := Config{Level: "info", Format: "console"}
	if level := os.Getenv("DIMDIM_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("DIMDIM_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return cfg
}

var (
	globalLogger *log.Logger
	loggerMutex  sync.RWMutex
)

// Get returns the global logger, creating it from DefaultConfig on first use.
func Get() *log.Logger {
	loggerMutex.RLock()
	if globalLogger != nil {
		defer loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = New(DefaultConfig(), os.Stderr)
	}
	return globalLogger
}

// Init replaces the global logger.
func Init(cfg Config) *log.Logger {
	logger := New(cfg, os.Stderr)

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()

	return logger
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:      log.ParseLevel(cfg.Level),
		TimeFormat: "15:04:05",
	}
	if strings.EqualFold(cfg.Format, "json") {
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{Writer: w, EndWithMessage: true}
	}
	return logger
}
