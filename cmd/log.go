package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/a1s/lazyrows/internal/config"
	"github.com/a1s/lazyrows/internal/config/data"
)

// newLogger logs to the configured file. The TUI owns the terminal, so it
// falls back to the default log file rather than stderr.
func newLogger(cfg data.Logger, toFile bool) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: toFile})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	path := cfg.File
	if path == "" && toFile {
		path = config.AppLogFile
	}
	if path == "" {
		log.SetOutput(os.Stderr)
		return log, func() {}, nil
	}

	if err := config.InitLogLoc(path); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)

	return log, func() { _ = f.Close() }, nil
}
