package main

import (
	"path/filepath"
	"testing"

	"galleria/internal/config"
)

func TestDaemonLogPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	expected := filepath.Join(cfg.Paths.LogDir, "galleriad.log")
	if got := daemonLogPath(&cfg); got != expected {
		t.Fatalf("expected log path %q, got %q", expected, got)
	}

	if got := daemonLogPath(nil); got != "" {
		t.Fatalf("expected empty log path for nil config, got %q", got)
	}
}

func TestNewDaemonLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := newDaemonLogger(&cfg)
	if err != nil {
		t.Fatalf("newDaemonLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
}
