// Package logging wires the process logger: logrus with a size-rotated file
// sink, teeing to stderr outside production.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/afrelay/afrelay/internal/config"
)

const megabyte = 1024 * 1024

// New builds the relay logger from the logging section of the config.
// Rotation is size-based; AFRELAY_LOG_MAX_BYTES is converted to lumberjack's
// megabyte unit and clamped to at least 1 MB.
func New(cfg config.LoggingConfig, env string) (*logrus.Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	maxMB := int(cfg.MaxBytes / megabyte)
	if maxMB < 1 {
		maxMB = 1
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.File),
		MaxSize:    maxMB,
		MaxBackups: cfg.BackupCount,
		Compress:   false,
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if env == "production" {
		logger.SetOutput(rotator)
	} else {
		logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}

	return logger, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
