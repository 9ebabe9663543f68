package config

import (
	"errors"
	"fmt"

	"galleria/internal/gallery"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateMarketplaces(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if err := ensurePositiveMap(map[string]int{
		"scheduler.tracker_inbox_size":   c.Scheduler.TrackerInboxSize,
		"scheduler.scheduler_inbox_size": c.Scheduler.SchedulerInboxSize,
		"scheduler.worker_inbox_size":    c.Scheduler.WorkerInboxSize,
		"scheduler.lease_timeout":        c.Scheduler.LeaseTimeout,
		"scheduler.reclaim_interval":     c.Scheduler.ReclaimInterval,
		"scheduler.reply_timeout":        c.Scheduler.ReplyTimeout,
	}); err != nil {
		return err
	}
	if c.Scheduler.LeaseTimeout <= c.Scheduler.ReclaimInterval {
		return errors.New("scheduler.lease_timeout must be greater than scheduler.reclaim_interval")
	}
	return nil
}

func (c *Config) validateMarketplaces() error {
	if len(c.Marketplaces.Enabled) == 0 {
		return errors.New("marketplaces.enabled must include at least one marketplace")
	}
	for _, value := range c.Marketplaces.Enabled {
		if _, ok := gallery.ParseMarketplace(value); !ok {
			return fmt.Errorf("marketplaces.enabled contains unknown marketplace %q", value)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
