package storage

import (
	"fmt"
	"time"

	"galleria/internal/gallery"
	"galleria/internal/pipeline"
)

// Registration is a gallery's durable record: everything needed to
// rebuild its Initialization payload and scheduled task after a daemon
// restart.
type Registration struct {
	ID                 gallery.ID
	Cron               string
	SearchCriteria     gallery.SearchCriteria
	EvaluationCriteria gallery.EvaluationCriteria
	ScrapeHistory      map[gallery.Marketplace]time.Time
	FailureReasons     map[gallery.Marketplace]string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewRegistration builds the durable record for a registered gallery.
func NewRegistration(state pipeline.InitializationState) *Registration {
	return &Registration{
		ID:                 state.Gallery,
		Cron:               state.Schedule.String(),
		SearchCriteria:     state.SearchCriteria.Clone(),
		EvaluationCriteria: state.EvaluationCriteria.Clone(),
		ScrapeHistory:      state.UpdatedAt,
		FailureReasons:     state.FailedReasons,
	}
}

// InitializationState rebuilds the payload a gallery re-enters the
// tracker and scheduler with.
func (r *Registration) InitializationState() (pipeline.InitializationState, error) {
	schedule, err := gallery.ParseCronSchedule(r.Cron)
	if err != nil {
		return pipeline.InitializationState{}, fmt.Errorf("registration %s: %w", r.ID, err)
	}
	return pipeline.InitializationState{
		Gallery:            r.ID,
		Schedule:           schedule,
		SearchCriteria:     r.SearchCriteria.Clone(),
		EvaluationCriteria: r.EvaluationCriteria.Clone(),
		UpdatedAt:          r.ScrapeHistory,
		FailedReasons:      r.FailureReasons,
	}, nil
}
