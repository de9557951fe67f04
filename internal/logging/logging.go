// Package logging configures the process logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log level and destination.
type Options struct {
	Level      string
	File       string // empty means stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions logs warnings and above to stderr.
func DefaultOptions() Options {
	return Options{
		Level:      "warn",
		MaxSizeMB:  10,
		MaxBackups: 7,
		MaxAgeDays: 30,
	}
}

// New builds a logger from opts. When a file is set, output goes through a
// rotating writer that is closed by the returned io.Closer.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	level := logrus.WarnLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		level = parsed
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	logger.SetOutput(rotator)
	return logger, rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
