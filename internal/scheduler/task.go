package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/logging"
	"galleria/internal/pipeline"
	"galleria/internal/statetracker"
)

// taskSpec is the immutable definition of one recurring task. The
// criteria are retained so a Final payload, which no longer carries
// them, can be cycled back into search scraping.
type taskSpec struct {
	id       gallery.ID
	schedule gallery.CronSchedule
	search   gallery.SearchCriteria
	eval     gallery.EvaluationCriteria
}

// task is a running timer goroutine for one gallery.
type task struct {
	spec   taskSpec
	cancel context.CancelFunc
	done   chan struct{}
}

// StageOutputs holds the inbound queue of every stage worker. The
// dispatcher routes a resting payload to the worker matching its actual
// stage, so a cycle parked mid-pipeline by a failed stage or a
// reclaimed lease resumes instead of waiting for a daemon restart.
type StageOutputs struct {
	SearchScraping bus.Sender[pipeline.SearchScrapingState]
	ItemScraping   bus.Sender[pipeline.ItemScrapingState]
	ItemAnalysis   bus.Sender[pipeline.ItemAnalysisState]
	ItemEmbedding  bus.Sender[pipeline.ItemEmbeddingState]
}

// dispatcher carries the shared handles a firing task needs. All of
// them are safe for use from many task goroutines at once.
type dispatcher struct {
	tracker statetracker.Client
	outputs StageOutputs
	logger  *slog.Logger
}

func startTask(parent context.Context, spec taskSpec, d dispatcher) *task {
	ctx, cancel := context.WithCancel(parent)
	t := &task{spec: spec, cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, d)
	return t
}

func (t *task) run(ctx context.Context, d dispatcher) {
	defer close(t.done)
	for {
		next := t.spec.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.fire(ctx, t.spec)
		}
	}
}

func (t *task) stop() {
	t.cancel()
	<-t.done
}

// fire attempts one dispatch. Initialization and Final payloads start a
// new cycle in search scraping under the task's current criteria; a
// payload resting mid-pipeline, left behind by a failed stage or a
// reclaimed lease, is forwarded back to that stage's worker so the
// cycle resumes where it stopped. A gallery that is absent or leased
// out is skipped for this tick; the next cron fire will try again.
// Returns whether a payload was dispatched.
func (d dispatcher) fire(ctx context.Context, spec taskSpec) bool {
	logger := d.logger.With(logging.String(logging.FieldGalleryID, spec.id.String()))

	taken, err := d.tracker.TakeGallery(ctx, spec.id)
	if err != nil {
		logger.Debug("fire skipped", logging.Error(err))
		return false
	}

	var stage pipeline.Stage
	var sendErr error
	switch state := taken.(type) {
	case pipeline.InitializationState:
		// The resting payload may predate a criteria update; the task
		// spec always carries the registration's current criteria.
		state.SearchCriteria = spec.search.Clone()
		state.EvaluationCriteria = spec.eval.Clone()
		stage = pipeline.StageSearchScraping
		sendErr = dispatch(ctx, d.outputs.SearchScraping, state.ToSearchScraping())
	case pipeline.FinalState:
		stage = pipeline.StageSearchScraping
		sendErr = dispatch(ctx, d.outputs.SearchScraping, pipeline.RestartFromFinal(state, spec.search, spec.eval))
	case pipeline.SearchScrapingState:
		stage = pipeline.StageSearchScraping
		sendErr = dispatch(ctx, d.outputs.SearchScraping, state)
	case pipeline.ItemScrapingState:
		stage = pipeline.StageItemScraping
		sendErr = dispatch(ctx, d.outputs.ItemScraping, state)
	case pipeline.ItemAnalysisState:
		stage = pipeline.StageItemAnalysis
		sendErr = dispatch(ctx, d.outputs.ItemAnalysis, state)
	case pipeline.ItemEmbeddingState:
		stage = pipeline.StageItemEmbedding
		sendErr = dispatch(ctx, d.outputs.ItemEmbedding, state)
	default:
		sendErr = fmt.Errorf("unexpected payload type %T", taken)
	}

	if sendErr != nil {
		logger.Error("dispatch failed", logging.Error(sendErr))
		d.release(ctx, spec.id, taken, logger)
		return false
	}

	logger.Info("gallery dispatched", logging.String(logging.FieldStage, stage.String()))
	return true
}

func dispatch[T pipeline.State](ctx context.Context, out bus.Sender[T], state T) error {
	if out.IsZero() {
		return fmt.Errorf("no worker inbox wired for stage %s", state.Stage())
	}
	return out.Send(ctx, state)
}

// release hands a payload back unchanged after a failed dispatch so the
// gallery is not stranded in Taken.
func (d dispatcher) release(ctx context.Context, id gallery.ID, state pipeline.State, logger *slog.Logger) {
	if err := d.tracker.UpdateGalleryState(ctx, id, state); err != nil {
		logger.Error("unable to release gallery after failed dispatch", logging.Error(err))
	}
}
