package statetracker

import (
	"context"
	"time"

	"galleria/internal/bus"
	"galleria/internal/gallery"
	"galleria/internal/pipeline"
)

type message interface{ isMessage() }

type addRequest struct {
	id    gallery.ID
	state pipeline.State
}

type stageRequest struct {
	id    gallery.ID
	stage pipeline.Stage
}

type updateRequest struct {
	id    gallery.ID
	state pipeline.State
}

type addMsg struct {
	bus.Call[addRequest, struct{}]
}

type checkAbsentMsg struct {
	bus.Call[gallery.ID, struct{}]
}

type checkStateMsg struct {
	bus.Call[stageRequest, struct{}]
}

type takeMsg struct {
	bus.Call[stageRequest, pipeline.State]
}

type takeAnyMsg struct {
	bus.Call[gallery.ID, pipeline.State]
}

type updateMsg struct {
	bus.Call[updateRequest, struct{}]
}

type removeMsg struct {
	bus.Call[gallery.ID, struct{}]
}

type reclaimMsg struct {
	bus.Call[time.Time, int]
}

type snapshotMsg struct {
	bus.Call[struct{}, []GalleryStatus]
}

func (addMsg) isMessage()         {}
func (checkAbsentMsg) isMessage() {}
func (checkStateMsg) isMessage()  {}
func (takeMsg) isMessage()        {}
func (takeAnyMsg) isMessage()     {}
func (updateMsg) isMessage()      {}
func (removeMsg) isMessage()      {}
func (reclaimMsg) isMessage()     {}
func (snapshotMsg) isMessage()    {}

// GalleryStatus is a read-only view of one registry slot.
type GalleryStatus struct {
	Gallery gallery.ID
	Stage   pipeline.Stage
	Taken   bool
	TakenAt time.Time
}

// Client wraps the tracker's inbox with one method per request kind, so
// call sites read like remote procedure calls. Each method flattens the
// transport and domain error layers into a single result.
type Client struct {
	sender bus.Sender[message]
}

// AddGallery inserts a Present slot for a gallery that must not exist
// yet.
func (c Client) AddGallery(ctx context.Context, id gallery.ID, state pipeline.State) error {
	call, waiter := bus.NewCall[addRequest, struct{}](addRequest{id: id, state: state})
	if err := c.sender.Send(ctx, addMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// CheckGalleryAbsent succeeds only when no slot exists for the gallery.
func (c Client) CheckGalleryAbsent(ctx context.Context, id gallery.ID) error {
	call, waiter := bus.NewCall[gallery.ID, struct{}](id)
	if err := c.sender.Send(ctx, checkAbsentMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// CheckGalleryState succeeds when the gallery is Present at the given
// stage. No mutation.
func (c Client) CheckGalleryState(ctx context.Context, id gallery.ID, stage pipeline.Stage) error {
	call, waiter := bus.NewCall[stageRequest, struct{}](stageRequest{id: id, stage: stage})
	if err := c.sender.Send(ctx, checkStateMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// TakeGalleryState leases the payload out to the caller, leaving the
// slot Taken until UpdateGalleryState hands a payload back.
func (c Client) TakeGalleryState(ctx context.Context, id gallery.ID, stage pipeline.Stage) (pipeline.State, error) {
	call, waiter := bus.NewCall[stageRequest, pipeline.State](stageRequest{id: id, stage: stage})
	if err := c.sender.Send(ctx, takeMsg{call}); err != nil {
		return nil, err
	}
	return waiter.Wait(ctx)
}

// TakeGallery leases the payload out whatever its current stage. The
// scheduler routes by the payload's concrete type, so it cannot name a
// stage up front the way the workers do.
func (c Client) TakeGallery(ctx context.Context, id gallery.ID) (pipeline.State, error) {
	call, waiter := bus.NewCall[gallery.ID, pipeline.State](id)
	if err := c.sender.Send(ctx, takeAnyMsg{call}); err != nil {
		return nil, err
	}
	return waiter.Wait(ctx)
}

// UpdateGalleryState releases a lease by storing the new payload.
func (c Client) UpdateGalleryState(ctx context.Context, id gallery.ID, state pipeline.State) error {
	call, waiter := bus.NewCall[updateRequest, struct{}](updateRequest{id: id, state: state})
	if err := c.sender.Send(ctx, updateMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// RemoveGallery deletes the slot regardless of lease state. This is the
// only operation that can force-release an abandoned lease immediately.
func (c Client) RemoveGallery(ctx context.Context, id gallery.ID) error {
	call, waiter := bus.NewCall[gallery.ID, struct{}](id)
	if err := c.sender.Send(ctx, removeMsg{call}); err != nil {
		return err
	}
	_, err := waiter.Wait(ctx)
	return err
}

// ReclaimStale force-releases leases taken before the cutoff, restoring
// the payload each lease holder was handed. Returns how many leases were
// reclaimed.
func (c Client) ReclaimStale(ctx context.Context, cutoff time.Time) (int, error) {
	call, waiter := bus.NewCall[time.Time, int](cutoff)
	if err := c.sender.Send(ctx, reclaimMsg{call}); err != nil {
		return 0, err
	}
	return waiter.Wait(ctx)
}

// Snapshot returns a point-in-time view of every slot, ordered by
// gallery id.
func (c Client) Snapshot(ctx context.Context) ([]GalleryStatus, error) {
	call, waiter := bus.NewCall[struct{}, []GalleryStatus](struct{}{})
	if err := c.sender.Send(ctx, snapshotMsg{call}); err != nil {
		return nil, err
	}
	return waiter.Wait(ctx)
}
