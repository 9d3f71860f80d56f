package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.Mutex
	defaultLogger *zap.Logger
	// level is shared by every logger built here so it can be changed after init
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// newConfig returns the production config writing JSON to stderr.
// stdout is reserved for command output so it stays machine readable.
func newConfig() zap.Config {
	config := zap.NewProductionConfig()
	config.Level = level
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	return config
}

// InitLogger initializes the default logger, honouring LOG_LEVEL
func InitLogger() error {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		SetLevel(lvl)
	}

	logger, err := newConfig().Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()

	zap.ReplaceGlobals(logger)
	return nil
}

// SetLevel changes the level of the default logger. Unknown names select info.
func SetLevel(name string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		l = zapcore.InfoLevel
	}
	level.SetLevel(l)
}

// Level returns the current level of the default logger
func Level() zapcore.Level {
	return level.Level()
}

// Logger returns the default logger. Packages used without InitLogger,
// such as in tests, get the same configuration built lazily.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger == nil {
		if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
			SetLevel(lvl)
		}
		logger, err := newConfig().Build()
		if err != nil {
			logger = zap.NewNop()
		}
		defaultLogger = logger
	}
	return defaultLogger
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.Lock()
	logger := defaultLogger
	mu.Unlock()

	if logger == nil {
		return nil
	}
	return logger.Sync()
}
