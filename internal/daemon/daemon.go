package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"galleria/internal/api"
	"galleria/internal/bus"
	"galleria/internal/config"
	"galleria/internal/gallery"
	"galleria/internal/logging"
	"galleria/internal/pipeline"
	"galleria/internal/scheduler"
	"galleria/internal/services"
	"galleria/internal/stagerun"
	"galleria/internal/statetracker"
	"galleria/internal/storage"
)

type runner interface {
	Run(ctx context.Context)
}

// Daemon coordinates the pipeline actors and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store

	tracker statetracker.Client
	sched   scheduler.Client
	runners []runner
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with the full actor graph: tracker, scheduler,
// and the four stage workers chained through their inboxes.
func New(cfg *config.Config, store *storage.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	tracker, trackerClient := statetracker.New(cfg.Scheduler.TrackerInboxSize, logger)

	// Workers are built last stage first so each can feed the next one's
	// inbox.
	workerInbox := cfg.Scheduler.WorkerInboxSize
	embedWorker, embedIn := stagerun.New(
		"itemembedding", workerInbox, trackerClient,
		persistCycleHistory(store, logger, stagerun.PassthroughItemEmbedding()),
		bus.Sender[pipeline.FinalState]{}, logger,
	)
	analysisWorker, analysisIn := stagerun.New(
		"itemanalysis", workerInbox, trackerClient,
		stagerun.PassthroughItemAnalysis(),
		embedIn, logger,
	)
	itemWorker, itemIn := stagerun.New(
		"itemscraping", workerInbox, trackerClient,
		stagerun.PassthroughItemScraping(),
		analysisIn, logger,
	)
	searchWorker, searchIn := stagerun.New(
		"searchscraping", workerInbox, trackerClient,
		stagerun.PassthroughSearchScraping(cfg.EnabledMarketplaces()),
		itemIn, logger,
	)

	sched, schedClient := scheduler.New(cfg.Scheduler.SchedulerInboxSize, trackerClient, scheduler.StageOutputs{
		SearchScraping: searchIn,
		ItemScraping:   itemIn,
		ItemAnalysis:   analysisIn,
		ItemEmbedding:  embedIn,
	}, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		tracker:  trackerClient,
		sched:    schedClient,
		runners:  []runner{tracker, sched, searchWorker, itemWorker, analysisWorker, embedWorker},
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, launches every actor, replays
// persisted registrations, and begins the stale-lease sweep.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another galleria daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for _, r := range d.runners {
		d.wg.Add(1)
		go func(r runner) {
			defer d.wg.Done()
			r.Run(runCtx)
		}(r)
	}

	if err := d.replayRegistrations(runCtx); err != nil {
		d.Stop()
		return fmt.Errorf("replay registrations: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sweepStaleLeases(runCtx)
	}()

	if err := d.api.start(runCtx); err != nil {
		d.Stop()
		return err
	}

	d.running.Store(true)
	d.logger.Info("galleria daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts every actor and releases the daemon lock.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if d.running.Swap(false) {
		d.logger.Info("galleria daemon stopped")
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// persistCycleHistory wraps the terminal stage processor so each
// completed cycle writes its marketplace history back to the
// registration database. The view and restart replay stay current
// without persisting intermediate stage payloads.
func persistCycleHistory(store *storage.Store, logger *slog.Logger, process stagerun.Processor[pipeline.ItemEmbeddingState, pipeline.FinalState]) stagerun.Processor[pipeline.ItemEmbeddingState, pipeline.FinalState] {
	return func(ctx context.Context, in pipeline.ItemEmbeddingState) (pipeline.FinalState, error) {
		out, err := process(ctx, in)
		if err != nil {
			return out, err
		}
		reg, lookupErr := store.GetByID(ctx, out.Gallery)
		if lookupErr != nil || reg == nil {
			return out, nil
		}
		reg.ScrapeHistory = out.UpdatedAt
		reg.FailureReasons = out.FailedReasons
		if updateErr := store.Update(ctx, reg); updateErr != nil {
			logger.Warn("unable to persist cycle history",
				logging.String(logging.FieldGalleryID, out.Gallery.String()),
				logging.Error(updateErr))
		}
		return out, nil
	}
}

// replayRegistrations rebuilds the tracker and scheduler from the
// registration database. A registration that no longer parses is logged
// and skipped rather than blocking startup.
func (d *Daemon) replayRegistrations(ctx context.Context) error {
	regs, err := d.store.List(ctx)
	if err != nil {
		return err
	}
	replayed := 0
	for _, reg := range regs {
		state, err := reg.InitializationState()
		if err != nil {
			d.logger.Error("skipping unreplayable registration",
				logging.String(logging.FieldGalleryID, reg.ID.String()),
				logging.Error(err))
			continue
		}
		if err := d.tracker.AddGallery(ctx, reg.ID, state); err != nil {
			return fmt.Errorf("re-add gallery %s: %w", reg.ID, err)
		}
		if err := d.sched.NewGallery(ctx, state); err != nil {
			return fmt.Errorf("re-schedule gallery %s: %w", reg.ID, err)
		}
		replayed++
	}
	if replayed > 0 {
		d.logger.Info("registrations replayed", logging.Int("count", replayed))
	}
	return nil
}

// sweepStaleLeases periodically force-releases leases whose holder never
// reported back.
func (d *Daemon) sweepStaleLeases(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.ReclaimInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-d.cfg.LeaseTimeout())
			reclaimed, err := d.tracker.ReclaimStale(ctx, cutoff)
			if err != nil {
				d.logger.Warn("stale lease sweep failed", logging.Error(err))
				continue
			}
			if reclaimed > 0 {
				d.logger.Warn("stale leases reclaimed", logging.Int("count", reclaimed))
			}
		}
	}
}

// opCtx bounds an actor round trip so a wedged actor surfaces as an
// error instead of a hung API call.
func (d *Daemon) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.cfg.ReplyTimeout())
}

// RegisterGallery validates a registration request, persists it, and
// brings the gallery live in the tracker and scheduler. Partial
// failures roll back so the three views never diverge.
func (d *Daemon) RegisterGallery(ctx context.Context, req api.GalleryRegistration) (api.GalleryView, error) {
	var id gallery.ID
	if req.ID == "" {
		id = gallery.NewID()
	} else {
		parsed, ok := gallery.ParseID(req.ID)
		if !ok {
			return api.GalleryView{}, services.Wrap(services.ErrValidation, "daemon", "register", "invalid gallery id", nil)
		}
		id = parsed
	}

	schedule, err := gallery.ParseCronSchedule(req.Cron)
	if err != nil {
		return api.GalleryView{}, services.Wrap(services.ErrValidation, "daemon", "register", "invalid cron expression", err)
	}

	state := pipeline.InitializationState{
		Gallery:            id,
		Schedule:           schedule,
		SearchCriteria:     gallery.SearchCriteria{Spec: req.SearchCriteria},
		EvaluationCriteria: gallery.EvaluationCriteria{Spec: req.EvaluationCriteria},
	}

	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	if err := d.tracker.CheckGalleryAbsent(opCtx, id); err != nil {
		return api.GalleryView{}, err
	}
	reg := storage.NewRegistration(state)
	if err := d.store.Insert(opCtx, reg); err != nil {
		return api.GalleryView{}, err
	}
	if err := d.tracker.AddGallery(opCtx, id, state); err != nil {
		_, _ = d.store.Delete(opCtx, id)
		return api.GalleryView{}, err
	}
	if err := d.sched.NewGallery(opCtx, state); err != nil {
		_ = d.tracker.RemoveGallery(opCtx, id)
		_, _ = d.store.Delete(opCtx, id)
		return api.GalleryView{}, err
	}

	d.logger.Info("gallery registered",
		logging.String(logging.FieldGalleryID, id.String()),
		logging.String("cron", req.Cron))
	return d.galleryView(opCtx, reg)
}

// UpdateGallery replaces a gallery's cron schedule and criteria. The
// gallery's pipeline position is untouched; the new configuration takes
// effect on its next cycle.
func (d *Daemon) UpdateGallery(ctx context.Context, idValue string, req api.GalleryRegistration) (api.GalleryView, error) {
	id, ok := gallery.ParseID(idValue)
	if !ok {
		return api.GalleryView{}, services.Wrap(services.ErrValidation, "daemon", "update", "invalid gallery id", nil)
	}
	schedule, err := gallery.ParseCronSchedule(req.Cron)
	if err != nil {
		return api.GalleryView{}, services.Wrap(services.ErrValidation, "daemon", "update", "invalid cron expression", err)
	}

	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	existing, err := d.store.GetByID(opCtx, id)
	if err != nil {
		return api.GalleryView{}, err
	}
	if existing == nil {
		return api.GalleryView{}, fmt.Errorf("%w: %s", storage.ErrRegistrationNotFound, id)
	}

	state := pipeline.InitializationState{
		Gallery:            id,
		Schedule:           schedule,
		SearchCriteria:     gallery.SearchCriteria{Spec: req.SearchCriteria},
		EvaluationCriteria: gallery.EvaluationCriteria{Spec: req.EvaluationCriteria},
		UpdatedAt:          existing.ScrapeHistory,
		FailedReasons:      existing.FailureReasons,
	}
	if err := d.sched.UpdateGallery(opCtx, state); err != nil {
		return api.GalleryView{}, err
	}

	existing.Cron = req.Cron
	existing.SearchCriteria = gallery.SearchCriteria{Spec: req.SearchCriteria}
	existing.EvaluationCriteria = gallery.EvaluationCriteria{Spec: req.EvaluationCriteria}
	if err := d.store.Update(opCtx, existing); err != nil {
		return api.GalleryView{}, err
	}

	d.logger.Info("gallery updated",
		logging.String(logging.FieldGalleryID, id.String()),
		logging.String("cron", req.Cron))
	return d.galleryView(opCtx, existing)
}

// RemoveGallery deletes a gallery everywhere: scheduled task, tracker
// slot (even mid-lease), and durable registration.
func (d *Daemon) RemoveGallery(ctx context.Context, idValue string) error {
	id, ok := gallery.ParseID(idValue)
	if !ok {
		return services.Wrap(services.ErrValidation, "daemon", "remove", "invalid gallery id", nil)
	}

	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	if err := d.sched.DeleteGallery(opCtx, id); err != nil && !errors.Is(err, scheduler.ErrGalleryNotScheduled) {
		return err
	}
	trackerErr := d.tracker.RemoveGallery(opCtx, id)
	if trackerErr != nil && !errors.Is(trackerErr, statetracker.ErrGalleryNotFound) {
		return trackerErr
	}
	existed, err := d.store.Delete(opCtx, id)
	if err != nil {
		return err
	}
	if !existed && errors.Is(trackerErr, statetracker.ErrGalleryNotFound) {
		return fmt.Errorf("%w: %s", statetracker.ErrGalleryNotFound, id)
	}

	d.logger.Info("gallery removed", logging.String(logging.FieldGalleryID, id.String()))
	return nil
}

// GetGallery returns one gallery's merged view.
func (d *Daemon) GetGallery(ctx context.Context, idValue string) (api.GalleryView, error) {
	id, ok := gallery.ParseID(idValue)
	if !ok {
		return api.GalleryView{}, services.Wrap(services.ErrValidation, "daemon", "get", "invalid gallery id", nil)
	}

	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	reg, err := d.store.GetByID(opCtx, id)
	if err != nil {
		return api.GalleryView{}, err
	}
	if reg == nil {
		return api.GalleryView{}, fmt.Errorf("%w: %s", storage.ErrRegistrationNotFound, id)
	}
	return d.galleryView(opCtx, reg)
}

// ListGalleries returns every registration merged with live pipeline
// state.
func (d *Daemon) ListGalleries(ctx context.Context) ([]api.GalleryView, error) {
	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	regs, err := d.store.List(opCtx)
	if err != nil {
		return nil, err
	}
	statuses, tasks := d.liveState(opCtx)

	views := make([]api.GalleryView, 0, len(regs))
	for _, reg := range regs {
		status := statuses[reg.ID]
		task := tasks[reg.ID]
		views = append(views, api.FromRegistration(reg, status, task))
	}
	return views, nil
}

// Status returns daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if !status.Running {
		return status
	}

	opCtx, cancel := d.opCtx(ctx)
	defer cancel()

	snapshot, err := d.tracker.Snapshot(opCtx)
	if err != nil {
		d.logger.Warn("status snapshot failed", logging.Error(err))
		return status
	}
	status.GalleryCount = len(snapshot)
	status.StageCounts = make(map[string]int, len(snapshot))
	for _, entry := range snapshot {
		status.StageCounts[entry.Stage.String()]++
		if entry.Taken {
			status.TakenCount++
		}
	}
	return status
}

// Health reports whether the daemon and its database are usable.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	if err := d.store.Health(ctx); err != nil {
		return api.HealthResponse{Healthy: false, Detail: err.Error()}
	}
	if !d.running.Load() {
		return api.HealthResponse{Healthy: false, Detail: "daemon not running"}
	}
	return api.HealthResponse{Healthy: true}
}

func (d *Daemon) galleryView(ctx context.Context, reg *storage.Registration) (api.GalleryView, error) {
	statuses, tasks := d.liveState(ctx)
	return api.FromRegistration(reg, statuses[reg.ID], tasks[reg.ID]), nil
}

func (d *Daemon) liveState(ctx context.Context) (map[gallery.ID]*statetracker.GalleryStatus, map[gallery.ID]*scheduler.TaskStatus) {
	statuses := make(map[gallery.ID]*statetracker.GalleryStatus)
	if snapshot, err := d.tracker.Snapshot(ctx); err == nil {
		for i := range snapshot {
			statuses[snapshot[i].Gallery] = &snapshot[i]
		}
	} else {
		d.logger.Warn("tracker snapshot failed", logging.Error(err))
	}
	tasks := make(map[gallery.ID]*scheduler.TaskStatus)
	if list, err := d.sched.List(ctx); err == nil {
		for i := range list {
			tasks[list[i].Gallery] = &list[i]
		}
	} else {
		d.logger.Warn("scheduler list failed", logging.Error(err))
	}
	return statuses, tasks
}
