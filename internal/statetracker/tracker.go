package statetracker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/logging"
	"galleria/internal/pipeline"
)

// slot is a gallery's registry entry: either Present (holding the
// payload) or Taken (payload leased out). While Taken, retained keeps
// the snapshot that was handed to the lease holder so a stale lease can
// be reclaimed.
type slot struct {
	taken    bool
	state    pipeline.State
	retained pipeline.State
	takenAt  time.Time
}

// Tracker is the single-writer registry actor. Run it on its own
// goroutine; interact through the Client returned by New.
type Tracker struct {
	recv   *bus.Receiver[message]
	slots  map[gallery.ID]*slot
	logger *slog.Logger
	now    func() time.Time
}

// New constructs the tracker and the client handle for its inbox.
func New(inboxSize int, logger *slog.Logger) (*Tracker, Client) {
	if logger == nil {
		logger = logging.NewNop()
	}
	sender, recv := bus.NewPipe[message](inboxSize)
	tracker := &Tracker{
		recv:   recv,
		slots:  make(map[gallery.ID]*slot),
		logger: logger.With(logging.String("component", "statetracker")),
		now:    time.Now,
	}
	return tracker, Client{sender: sender}
}

// Run processes messages one at a time until the context ends. The
// serialized loop is what totally orders all operations per gallery.
func (t *Tracker) Run(ctx context.Context) {
	t.logger.Info("state tracker running")
	defer t.recv.Close()

	for {
		msg, ok := t.recv.Receive(ctx)
		if !ok {
			t.logger.Info("state tracker stopped")
			return
		}
		t.process(msg)
	}
}

func (t *Tracker) process(msg message) {
	switch m := msg.(type) {
	case addMsg:
		t.reply(m.Call.ReplyErr(t.add(m.Msg.id, m.Msg.state)), "add gallery")
	case checkAbsentMsg:
		t.reply(m.Call.ReplyErr(t.checkAbsent(m.Msg)), "check gallery absent")
	case checkStateMsg:
		t.reply(m.Call.ReplyErr(t.check(m.Msg.id, m.Msg.stage)), "check gallery state")
	case takeMsg:
		state, err := t.take(m.Msg.id, m.Msg.stage)
		t.reply(m.Call.Reply(state, err), "take gallery state")
	case takeAnyMsg:
		state, err := t.takeAny(m.Msg)
		t.reply(m.Call.Reply(state, err), "take gallery")
	case updateMsg:
		t.reply(m.Call.ReplyErr(t.update(m.Msg.id, m.Msg.state)), "update gallery state")
	case removeMsg:
		t.reply(m.Call.ReplyErr(t.remove(m.Msg)), "remove gallery")
	case reclaimMsg:
		t.reply(m.Call.Reply(t.reclaim(m.Msg), nil), "reclaim stale leases")
	case snapshotMsg:
		t.reply(m.Call.Reply(t.snapshot(), nil), "snapshot")
	}
}

// reply failures mean the caller is gone; there is no remaining party to
// notify, so the tracker only logs them.
func (t *Tracker) reply(err error, operation string) {
	if err != nil {
		t.logger.Error("unable to reply", logging.String("operation", operation), logging.Error(err))
	}
}

func (t *Tracker) add(id gallery.ID, state pipeline.State) error {
	if _, exists := t.slots[id]; exists {
		return ErrGalleryAlreadyExists
	}
	t.slots[id] = &slot{state: state}
	t.logger.Debug("gallery added",
		logging.String("gallery_id", id.String()),
		logging.String("stage", state.Stage().String()))
	return nil
}

func (t *Tracker) checkAbsent(id gallery.ID) error {
	if _, exists := t.slots[id]; exists {
		return ErrGalleryAlreadyExists
	}
	return nil
}

func (t *Tracker) check(id gallery.ID, stage pipeline.Stage) error {
	entry, exists := t.slots[id]
	if !exists {
		return ErrGalleryNotFound
	}
	if entry.taken {
		return ErrGalleryStateTaken
	}
	if !pipeline.Matches(entry.state, stage) {
		return ErrStateMismatch
	}
	return nil
}

func (t *Tracker) take(id gallery.ID, stage pipeline.Stage) (pipeline.State, error) {
	entry, exists := t.slots[id]
	if !exists {
		return nil, ErrGalleryNotFound
	}
	if entry.taken {
		return nil, ErrGalleryStateTaken
	}
	if !pipeline.Matches(entry.state, stage) {
		return nil, ErrStateMismatch
	}
	return t.lease(id, entry), nil
}

func (t *Tracker) takeAny(id gallery.ID) (pipeline.State, error) {
	entry, exists := t.slots[id]
	if !exists {
		return nil, ErrGalleryNotFound
	}
	if entry.taken {
		return nil, ErrGalleryStateTaken
	}
	return t.lease(id, entry), nil
}

func (t *Tracker) lease(id gallery.ID, entry *slot) pipeline.State {
	state := entry.state
	entry.taken = true
	entry.retained = state
	entry.state = nil
	entry.takenAt = t.now()
	t.logger.Debug("gallery state taken",
		logging.String("gallery_id", id.String()),
		logging.String("stage", state.Stage().String()))
	return state
}

func (t *Tracker) update(id gallery.ID, state pipeline.State) error {
	entry, exists := t.slots[id]
	if !exists {
		return ErrGalleryNotFound
	}
	if !entry.taken {
		return ErrGalleryStateNotTaken
	}
	entry.taken = false
	entry.state = state
	entry.retained = nil
	entry.takenAt = time.Time{}
	t.logger.Debug("gallery state updated",
		logging.String("gallery_id", id.String()),
		logging.String("stage", state.Stage().String()))
	return nil
}

func (t *Tracker) remove(id gallery.ID) error {
	entry, exists := t.slots[id]
	if !exists {
		return ErrGalleryNotFound
	}
	delete(t.slots, id)
	t.logger.Info("gallery removed",
		logging.String("gallery_id", id.String()),
		logging.Bool("was_taken", entry.taken))
	return nil
}

func (t *Tracker) reclaim(cutoff time.Time) int {
	reclaimed := 0
	for id, entry := range t.slots {
		if !entry.taken || !entry.takenAt.Before(cutoff) {
			continue
		}
		entry.taken = false
		entry.state = entry.retained
		entry.retained = nil
		entry.takenAt = time.Time{}
		reclaimed++
		t.logger.Warn("reclaimed stale lease",
			logging.String("gallery_id", id.String()),
			logging.String("stage", entry.state.Stage().String()))
	}
	return reclaimed
}

func (t *Tracker) snapshot() []GalleryStatus {
	statuses := make([]GalleryStatus, 0, len(t.slots))
	for id, entry := range t.slots {
		status := GalleryStatus{Gallery: id, Taken: entry.taken, TakenAt: entry.takenAt}
		if entry.taken {
			status.Stage = entry.retained.Stage()
		} else {
			status.Stage = entry.state.Stage()
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Gallery < statuses[j].Gallery })
	return statuses
}
