package main

import (
	"log/slog"
	"path/filepath"

	"galleria/internal/config"
	"galleria/internal/logging"
)

func newDaemonLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewWithFile(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, daemonLogPath(cfg))
}

func daemonLogPath(cfg *config.Config) string {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "galleriad.log")
}
