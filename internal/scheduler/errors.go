package scheduler

import "errors"

var (
	// ErrGalleryAlreadyScheduled reports a registration for a gallery
	// that already has a recurring task.
	ErrGalleryAlreadyScheduled = errors.New("gallery already scheduled")
	// ErrGalleryNotScheduled reports an update or delete for a gallery
	// with no recurring task.
	ErrGalleryNotScheduled = errors.New("gallery not scheduled")
	// ErrInvalidSchedule reports a registration whose cron schedule was
	// never parsed.
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
