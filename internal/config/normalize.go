package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScheduler()
	c.normalizeMarketplaces()
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if strings.TrimSpace(c.Paths.Socket) == "" {
		c.Paths.Socket = filepath.Join(c.Paths.DataDir, "galleriad.sock")
	} else if c.Paths.Socket, err = expandPath(c.Paths.Socket); err != nil {
		return fmt.Errorf("paths.socket: %w", err)
	}
	return nil
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.TrackerInboxSize <= 0 {
		c.Scheduler.TrackerInboxSize = defaultTrackerInbox
	}
	if c.Scheduler.SchedulerInboxSize <= 0 {
		c.Scheduler.SchedulerInboxSize = defaultSchedulerInbox
	}
	if c.Scheduler.WorkerInboxSize <= 0 {
		c.Scheduler.WorkerInboxSize = defaultWorkerInbox
	}
	if c.Scheduler.LeaseTimeout <= 0 {
		c.Scheduler.LeaseTimeout = defaultLeaseTimeout
	}
	if c.Scheduler.ReclaimInterval <= 0 {
		c.Scheduler.ReclaimInterval = defaultReclaimInterval
	}
	if c.Scheduler.ReplyTimeout <= 0 {
		c.Scheduler.ReplyTimeout = defaultReplyTimeout
	}
}

func (c *Config) normalizeMarketplaces() {
	if len(c.Marketplaces.Enabled) == 0 {
		c.Marketplaces.Enabled = Default().Marketplaces.Enabled
		return
	}
	enabled := make([]string, 0, len(c.Marketplaces.Enabled))
	seen := make(map[string]struct{}, len(c.Marketplaces.Enabled))
	for _, value := range c.Marketplaces.Enabled {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		enabled = append(enabled, normalized)
	}
	c.Marketplaces.Enabled = enabled
}

func (c *Config) normalizeProviders() {
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = defaultAnalysisBaseURL
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaultAnalysisModel
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeout
	}
	c.Analysis.APIKey = strings.TrimSpace(c.Analysis.APIKey)
	if c.Analysis.APIKey == "" {
		if value, ok := os.LookupEnv("GALLERIA_ANALYSIS_API_KEY"); ok {
			c.Analysis.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Analysis.APIKey = strings.TrimSpace(value)
		}
	}

	c.Embedding.BaseURL = strings.TrimSpace(c.Embedding.BaseURL)
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = defaultEmbeddingBaseURL
	}
	c.Embedding.Model = strings.TrimSpace(c.Embedding.Model)
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		c.Embedding.TimeoutSeconds = defaultEmbeddingTimeout
	}
	c.Embedding.APIKey = strings.TrimSpace(c.Embedding.APIKey)
	if c.Embedding.APIKey == "" {
		if value, ok := os.LookupEnv("GALLERIA_EMBEDDING_API_KEY"); ok {
			c.Embedding.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Embedding.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
