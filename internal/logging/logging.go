// Package logging builds the logrus entry shared by the engine and its shells.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config selects level, format and destination.
type Config struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	// File redirects output; empty means stderr.
	File string `yaml:"file"`
}

// New returns an entry tagged with service=recommender. The returned closer
// releases the log file, if one was opened.
func New(cfg Config) (*logrus.Entry, io.Closer, error) {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = lvl
	}
	logger.SetLevel(level)

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f
	} else {
		logger.SetOutput(os.Stderr)
	}
	return logger.WithField("service", "recommender"), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
