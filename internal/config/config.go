package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"galleria/internal/gallery"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
	Socket  string `toml:"socket"`
}

// Scheduler contains sizing and timing for the pipeline actors.
type Scheduler struct {
	TrackerInboxSize   int `toml:"tracker_inbox_size"`
	SchedulerInboxSize int `toml:"scheduler_inbox_size"`
	WorkerInboxSize    int `toml:"worker_inbox_size"`
	LeaseTimeout       int `toml:"lease_timeout"`
	ReclaimInterval    int `toml:"reclaim_interval"`
	ReplyTimeout       int `toml:"reply_timeout"`
}

// Marketplaces selects which sources galleries scrape from.
type Marketplaces struct {
	Enabled []string `toml:"enabled"`
}

// Analysis contains connection settings for the listing analysis
// provider. The pipeline threads these through to the collaborator
// without interpreting them.
type Analysis struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Embedding contains connection settings for the embedding provider.
type Embedding struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for galleria.
type Config struct {
	Paths        Paths        `toml:"paths"`
	Scheduler    Scheduler    `toml:"scheduler"`
	Marketplaces Marketplaces `toml:"marketplaces"`
	Analysis     Analysis     `toml:"analysis"`
	Embedding    Embedding    `toml:"embedding"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/galleria/config.toml")
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("galleria.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the registration database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "galleria.db")
}

// SocketPath returns the unix socket the daemon listens on for IPC.
func (c *Config) SocketPath() string {
	return c.Paths.Socket
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "galleriad.lock")
}

// LeaseTimeout returns how long a taken gallery may stay leased before
// the maintenance sweep reclaims it.
func (c *Config) LeaseTimeout() time.Duration {
	return time.Duration(c.Scheduler.LeaseTimeout) * time.Second
}

// ReclaimInterval returns the cadence of the stale-lease sweep.
func (c *Config) ReclaimInterval() time.Duration {
	return time.Duration(c.Scheduler.ReclaimInterval) * time.Second
}

// ReplyTimeout bounds how long API handlers wait on actor replies.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(c.Scheduler.ReplyTimeout) * time.Second
}

// EnabledMarketplaces returns the configured marketplace set. Validate
// guarantees every entry parses.
func (c *Config) EnabledMarketplaces() []gallery.Marketplace {
	marketplaces := make([]gallery.Marketplace, 0, len(c.Marketplaces.Enabled))
	for _, value := range c.Marketplaces.Enabled {
		if marketplace, ok := gallery.ParseMarketplace(value); ok {
			marketplaces = append(marketplaces, marketplace)
		}
	}
	return marketplaces
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
