package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/logging"
	"galleria/internal/pipeline"
	"galleria/internal/statetracker"
)

// Scheduler is the actor owning the gallery → scheduled-task map.
// Interact through the Client returned by New; run it on its own
// goroutine.
type Scheduler struct {
	recv       *bus.Receiver[message]
	dispatcher dispatcher
	tasks      map[gallery.ID]*task
	logger     *slog.Logger

	ctx context.Context
}

// New constructs the scheduler and the client handle for its inbox.
// outputs names the inbound queue of every stage worker a fire can
// dispatch into.
func New(
	inboxSize int,
	tracker statetracker.Client,
	outputs StageOutputs,
	logger *slog.Logger,
) (*Scheduler, Client) {
	logger = logging.NewComponentLogger(logger, "scheduler")
	sender, recv := bus.NewPipe[message](inboxSize)
	s := &Scheduler{
		recv: recv,
		dispatcher: dispatcher{
			tracker: tracker,
			outputs: outputs,
			logger:  logger,
		},
		tasks:  make(map[gallery.ID]*task),
		logger: logger,
	}
	return s, Client{sender: sender}
}

// Run processes registration messages until the context ends, then
// stops every task.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler running")
	s.ctx = ctx
	defer func() {
		s.recv.Close()
		for _, t := range s.tasks {
			t.cancel()
		}
		s.logger.Info("scheduler stopped")
	}()

	for {
		msg, ok := s.recv.Receive(ctx)
		if !ok {
			return
		}
		s.process(msg)
	}
}

func (s *Scheduler) process(msg message) {
	switch m := msg.(type) {
	case newGalleryMsg:
		s.reply(m.Call.ReplyErr(s.add(m.Msg)), "new gallery")
	case updateGalleryMsg:
		s.reply(m.Call.ReplyErr(s.update(m.Msg)), "update gallery")
	case deleteGalleryMsg:
		s.reply(m.Call.ReplyErr(s.delete(m.Msg)), "delete gallery")
	case listMsg:
		s.reply(m.Call.Reply(s.list(), nil), "list tasks")
	}
}

// A reply failure means the requesting task is gone; there is nobody
// left to notify, so it is only logged.
func (s *Scheduler) reply(err error, operation string) {
	if err != nil {
		s.logger.Error("unable to reply", logging.String("operation", operation), logging.Error(err))
	}
}

func (s *Scheduler) add(state pipeline.InitializationState) error {
	if state.Schedule.IsZero() {
		return ErrInvalidSchedule
	}
	if _, exists := s.tasks[state.Gallery]; exists {
		return ErrGalleryAlreadyScheduled
	}
	s.tasks[state.Gallery] = startTask(s.ctx, specFromState(state), s.dispatcher)
	s.logger.Info("gallery scheduled",
		logging.String(logging.FieldGalleryID, state.Gallery.String()),
		logging.String("cron", state.Schedule.String()))
	return nil
}

func (s *Scheduler) update(state pipeline.InitializationState) error {
	if state.Schedule.IsZero() {
		return ErrInvalidSchedule
	}
	existing, exists := s.tasks[state.Gallery]
	if !exists {
		return ErrGalleryNotScheduled
	}
	existing.stop()
	s.tasks[state.Gallery] = startTask(s.ctx, specFromState(state), s.dispatcher)
	s.logger.Info("gallery schedule updated",
		logging.String(logging.FieldGalleryID, state.Gallery.String()),
		logging.String("cron", state.Schedule.String()))
	return nil
}

func (s *Scheduler) delete(id gallery.ID) error {
	existing, exists := s.tasks[id]
	if !exists {
		return ErrGalleryNotScheduled
	}
	existing.stop()
	delete(s.tasks, id)
	s.logger.Info("gallery unscheduled", logging.String(logging.FieldGalleryID, id.String()))
	return nil
}

func (s *Scheduler) list() []TaskStatus {
	now := time.Now()
	statuses := make([]TaskStatus, 0, len(s.tasks))
	for id, t := range s.tasks {
		statuses = append(statuses, TaskStatus{
			Gallery:  id,
			Cron:     t.spec.schedule.String(),
			NextFire: t.spec.schedule.Next(now),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Gallery < statuses[j].Gallery })
	return statuses
}

func specFromState(state pipeline.InitializationState) taskSpec {
	return taskSpec{
		id:       state.Gallery,
		schedule: state.Schedule,
		search:   state.SearchCriteria,
		eval:     state.EvaluationCriteria,
	}
}
