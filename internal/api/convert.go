package api

import (
	"time"

	"galleria/internal/gallery"
	"galleria/internal/scheduler"
	"galleria/internal/statetracker"
	"galleria/internal/storage"
)

// FromRegistration builds the external view of a gallery from its
// durable registration, optionally merged with live tracker and
// scheduler state.
func FromRegistration(reg *storage.Registration, status *statetracker.GalleryStatus, task *scheduler.TaskStatus) GalleryView {
	view := GalleryView{
		ID:                 reg.ID.String(),
		Cron:               reg.Cron,
		SearchCriteria:     reg.SearchCriteria.Spec,
		EvaluationCriteria: reg.EvaluationCriteria.Spec,
		LastScraped:        formatScrapeHistory(reg.ScrapeHistory),
		FailureReasons:     formatFailureReasons(reg.FailureReasons),
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
	if status != nil {
		view.Stage = status.Stage.String()
		view.Taken = status.Taken
		if status.Taken && !status.TakenAt.IsZero() {
			takenAt := status.TakenAt
			view.TakenAt = &takenAt
		}
	}
	if task != nil && !task.NextFire.IsZero() {
		nextFire := task.NextFire
		view.NextFire = &nextFire
	}
	return view
}

func formatScrapeHistory(history map[gallery.Marketplace]time.Time) map[string]string {
	if len(history) == 0 {
		return nil
	}
	formatted := make(map[string]string, len(history))
	for marketplace, at := range history {
		formatted[marketplace.String()] = at.UTC().Format(time.RFC3339)
	}
	return formatted
}

func formatFailureReasons(reasons map[gallery.Marketplace]string) map[string]string {
	if len(reasons) == 0 {
		return nil
	}
	formatted := make(map[string]string, len(reasons))
	for marketplace, reason := range reasons {
		formatted[marketplace.String()] = reason
	}
	return formatted
}
