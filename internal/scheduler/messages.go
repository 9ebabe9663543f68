package scheduler

import (
	"context"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/pipeline"
)

type message interface{ isMessage() }

type newGalleryMsg struct {
	bus.Call[pipeline.InitializationState, struct{}]
}

type updateGalleryMsg struct {
	bus.Call[pipeline.InitializationState, struct{}]
}

type deleteGalleryMsg struct {
	bus.Call[gallery.ID, struct{}]
}

type listMsg struct {
	bus.Call[struct{}, []TaskStatus]
}

func (newGalleryMsg) isMessage()    {}
func (updateGalleryMsg) isMessage() {}
func (deleteGalleryMsg) isMessage() {}
func (listMsg) isMessage()          {}

// TaskStatus is a read-only view of one scheduled task.
type TaskStatus struct {
	Gallery  gallery.ID
	Cron     string
	NextFire time.Time
}

// Client wraps the scheduler's inbox with one method per request kind,
// flattening transport and domain errors into a single result.
type Client struct {
	sender bus.Sender[message]
}

// NewGallery registers a recurring scrape for a gallery from its
// Initialization payload.
func (c Client) NewGallery(ctx context.Context, state pipeline.InitializationState) error {
	call, waiter := bus.NewCall[pipeline.InitializationState, struct{}](state)
	if err := c.sender.Send(ctx, newGalleryMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// UpdateGallery replaces the cron schedule and criteria of an existing
// task.
func (c Client) UpdateGallery(ctx context.Context, state pipeline.InitializationState) error {
	call, waiter := bus.NewCall[pipeline.InitializationState, struct{}](state)
	if err := c.sender.Send(ctx, updateGalleryMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// DeleteGallery cancels a gallery's recurring task.
func (c Client) DeleteGallery(ctx context.Context, id gallery.ID) error {
	call, waiter := bus.NewCall[gallery.ID, struct{}](id)
	if err := c.sender.Send(ctx, deleteGalleryMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// List returns the scheduled tasks ordered by gallery id.
func (c Client) List(ctx context.Context) ([]TaskStatus, error) {
	call, waiter := bus.NewCall[struct{}, []TaskStatus](struct{}{})
	if err := c.sender.Send(ctx, listMsg{call}); err != nil {
		return nil, err
	}
	return waiter.Wait(ctx)
}
