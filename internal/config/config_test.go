package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"galleria/internal/config"
	"galleria/internal/gallery"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved == "" {
		t.Fatal("resolved path empty")
	}
	if cfg.Paths.APIBind != "127.0.0.1:7497" {
		t.Fatalf("api_bind = %q", cfg.Paths.APIBind)
	}
	if cfg.Scheduler.LeaseTimeout != 1800 {
		t.Fatalf("lease_timeout = %d", cfg.Scheduler.LeaseTimeout)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if len(cfg.EnabledMarketplaces()) != 3 {
		t.Fatalf("default marketplaces = %v", cfg.EnabledMarketplaces())
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "~/galleria-data"
api_bind = " 0.0.0.0:9000 "

[scheduler]
lease_timeout = 600
reclaim_interval = 30

[marketplaces]
enabled = ["Mercari", "mercari", " ebay "]

[logging]
format = "JSON"
level = "DEBUG"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("existing file reported missing")
	}
	if strings.HasPrefix(cfg.Paths.DataDir, "~") {
		t.Fatalf("data_dir not expanded: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("api_bind = %q", cfg.Paths.APIBind)
	}
	if cfg.Scheduler.LeaseTimeout != 600 {
		t.Fatalf("lease_timeout = %d", cfg.Scheduler.LeaseTimeout)
	}
	marketplaces := cfg.EnabledMarketplaces()
	if len(marketplaces) != 2 {
		t.Fatalf("marketplaces = %v, want deduplicated pair", marketplaces)
	}
	if marketplaces[0] != gallery.MarketplaceMercari || marketplaces[1] != gallery.MarketplaceEbay {
		t.Fatalf("marketplaces = %v", marketplaces)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.SocketPath() != filepath.Join(cfg.Paths.DataDir, "galleriad.sock") {
		t.Fatalf("socket = %q", cfg.SocketPath())
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "galleria.db") {
		t.Fatalf("database = %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsUnknownMarketplace(t *testing.T) {
	path := writeConfig(t, `
[marketplaces]
enabled = ["mercari", "amazon"]
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown marketplace") {
		t.Fatalf("Load = %v, want unknown marketplace error", err)
	}
}

func TestLoadRejectsLeaseShorterThanSweep(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
lease_timeout = 30
reclaim_interval = 60
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "lease_timeout") {
		t.Fatalf("Load = %v, want lease_timeout error", err)
	}
}

func TestAnalysisKeyEnvFallback(t *testing.T) {
	t.Setenv("GALLERIA_ANALYSIS_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, "")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.APIKey != "from-env" {
		t.Fatalf("analysis api_key = %q", cfg.Analysis.APIKey)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after create")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created: %v", p, err)
		}
	}
}
