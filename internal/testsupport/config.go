package testsupport

import (
	"path/filepath"
	"testing"

	"galleria/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Socket = filepath.Join(base, "galleriad.sock")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Analysis.APIKey = "test"
	cfg.Embedding.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithMarketplaces overrides the enabled marketplace set.
func WithMarketplaces(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Marketplaces.Enabled = names
	}
}

// WithLeaseTimings overrides the lease timeout and reclaim interval, in
// seconds.
func WithLeaseTimings(leaseTimeout, reclaimInterval int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.LeaseTimeout = leaseTimeout
		cfg.Scheduler.ReclaimInterval = reclaimInterval
	}
}
