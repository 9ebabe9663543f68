package stagerun

import (
	"context"
	"log/slog"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/logging"
	"galleria/internal/pipeline"
	"galleria/internal/services"
	"galleria/internal/statetracker"
)

const (
	processAttempts = 3
	retryBackoff    = 250 * time.Millisecond
)

// Processor performs one stage's work on a leased payload and produces
// the next stage's payload. Per-marketplace failures belong inside the
// produced payload's FailedReasons; a returned error means the stage
// could not run at all and the incoming payload is handed back
// unchanged.
type Processor[In, Out pipeline.State] func(ctx context.Context, in In) (Out, error)

// Worker drains one stage's inbox, processing one payload to completion
// at a time. Run it on its own goroutine.
type Worker[In, Out pipeline.State] struct {
	name    string
	recv    *bus.Receiver[In]
	tracker statetracker.Client
	process Processor[In, Out]
	next    bus.Sender[Out]
	logger  *slog.Logger
}

// New constructs a stage worker and the sender feeding its inbox. A zero
// next leaves the produced payload resting in the tracker, which is how
// the last stage before Final is wired.
func New[In, Out pipeline.State](
	name string,
	inboxSize int,
	tracker statetracker.Client,
	process Processor[In, Out],
	next bus.Sender[Out],
	logger *slog.Logger,
) (*Worker[In, Out], bus.Sender[In]) {
	sender, recv := bus.NewPipe[In](inboxSize)
	w := &Worker[In, Out]{
		name:    name,
		recv:    recv,
		tracker: tracker,
		process: process,
		next:    next,
		logger:  logging.NewComponentLogger(logger, name),
	}
	return w, sender
}

// Run processes payloads until the context ends.
func (w *Worker[In, Out]) Run(ctx context.Context) {
	w.logger.Info("stage worker running")
	defer w.recv.Close()

	for {
		in, ok := w.recv.Receive(ctx)
		if !ok {
			w.logger.Info("stage worker stopped")
			return
		}
		w.handle(ctx, in)
	}
}

func (w *Worker[In, Out]) handle(ctx context.Context, in In) {
	id := in.GalleryID()
	logger := w.logger.With(logging.String(logging.FieldGalleryID, id.String()))

	out, err := w.runProcess(ctx, in, logger)
	if err != nil {
		logger.Error("stage processing failed", logging.Error(err))
		w.release(ctx, id, in, logger)
		return
	}

	if err := w.tracker.UpdateGalleryState(ctx, id, out); err != nil {
		// Removed mid-flight or the lease was reclaimed; the result has
		// no home anymore.
		logger.Warn("unable to record stage result", logging.Error(err))
		return
	}
	logger.Info("stage complete", logging.String(logging.FieldStage, out.Stage().String()))

	if w.next.IsZero() {
		return
	}
	taken, err := w.tracker.TakeGalleryState(ctx, id, out.Stage())
	if err != nil {
		// Somebody got there first (removal, concurrent take); the next
		// cron fire will pick the gallery up again.
		logger.Debug("handoff skipped", logging.Error(err))
		return
	}
	payload, ok := taken.(Out)
	if !ok {
		logger.Error("taken payload has unexpected type",
			logging.String(logging.FieldStage, taken.Stage().String()))
		w.release(ctx, id, taken, logger)
		return
	}
	if err := w.next.Send(ctx, payload); err != nil {
		logger.Error("stage handoff failed", logging.Error(err))
		w.release(ctx, id, taken, logger)
	}
}

// runProcess retries transient processor failures in place. Validation
// and configuration failures will not heal on their own, so they get a
// single attempt; everything else gets processAttempts tries before the
// payload is parked for the next cron fire to resume.
func (w *Worker[In, Out]) runProcess(ctx context.Context, in In, logger *slog.Logger) (Out, error) {
	var out Out
	var err error
	for attempt := 1; ; attempt++ {
		out, err = w.process(ctx, in)
		if err == nil || !services.Retryable(err) || attempt == processAttempts {
			return out, err
		}
		logger.Warn("stage attempt failed",
			logging.Int("attempt", attempt),
			logging.Error(err))
		select {
		case <-ctx.Done():
			return out, err
		case <-time.After(retryBackoff):
		}
	}
}

// release hands a payload back after a failure so the gallery is not
// stranded in Taken.
func (w *Worker[In, Out]) release(ctx context.Context, id gallery.ID, state pipeline.State, logger *slog.Logger) {
	if err := w.tracker.UpdateGalleryState(ctx, id, state); err != nil {
		logger.Error("unable to release gallery after failure", logging.Error(err))
	}
}
