package gallery

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions plus the @hourly
// style descriptors.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronSchedule is a cron expression guaranteed syntactically valid at
// construction time. The zero value is invalid; always build one through
// ParseCronSchedule.
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
}

// ParseCronSchedule validates a cron expression and returns the schedule.
func ParseCronSchedule(expr string) (CronSchedule, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return CronSchedule{}, fmt.Errorf("cron expression is empty")
	}
	schedule, err := cronParser.Parse(trimmed)
	if err != nil {
		return CronSchedule{}, fmt.Errorf("parse cron expression %q: %w", trimmed, err)
	}
	return CronSchedule{expr: trimmed, schedule: schedule}, nil
}

// Next returns the first fire time strictly after the given instant.
func (c CronSchedule) Next(after time.Time) time.Time {
	if c.schedule == nil {
		return time.Time{}
	}
	return c.schedule.Next(after)
}

// IsZero reports whether the schedule was never parsed.
func (c CronSchedule) IsZero() bool { return c.schedule == nil }

func (c CronSchedule) String() string { return c.expr }
