package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"galleria/internal/api"
	"galleria/internal/daemon"
	"galleria/internal/logging"
	"galleria/internal/services"
	"galleria/internal/statetracker"
	"galleria/internal/testsupport"
)

func startDaemon(t *testing.T) (*daemon.Daemon, context.Context) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, ctx
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestRegisterListRemoveGallery(t *testing.T) {
	d, ctx := startDaemon(t)

	view, err := d.RegisterGallery(ctx, api.GalleryRegistration{
		Cron:           "0 * * * *",
		SearchCriteria: json.RawMessage(`{"keyword":"vintage lens"}`),
	})
	if err != nil {
		t.Fatalf("RegisterGallery: %v", err)
	}
	if view.ID == "" {
		t.Fatal("expected a minted gallery id")
	}
	if view.Stage != "initialization" {
		t.Fatalf("stage = %q, want initialization", view.Stage)
	}
	if view.NextFire == nil {
		t.Fatal("expected a scheduled next fire time")
	}

	views, err := d.ListGalleries(ctx)
	if err != nil {
		t.Fatalf("ListGalleries: %v", err)
	}
	if len(views) != 1 || views[0].ID != view.ID {
		t.Fatalf("list = %+v", views)
	}

	got, err := d.GetGallery(ctx, view.ID)
	if err != nil {
		t.Fatalf("GetGallery: %v", err)
	}
	if string(got.SearchCriteria) != `{"keyword":"vintage lens"}` {
		t.Fatalf("search criteria = %s", got.SearchCriteria)
	}

	if err := d.RemoveGallery(ctx, view.ID); err != nil {
		t.Fatalf("RemoveGallery: %v", err)
	}
	if _, err := d.GetGallery(ctx, view.ID); err == nil {
		t.Fatal("expected lookup after removal to fail")
	}
	if err := d.RemoveGallery(ctx, view.ID); err == nil {
		t.Fatal("expected second removal to fail")
	}
}

func TestRegisterGalleryValidation(t *testing.T) {
	d, ctx := startDaemon(t)

	_, err := d.RegisterGallery(ctx, api.GalleryRegistration{Cron: "not a cron"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("invalid cron error = %v", err)
	}

	if _, err := d.RegisterGallery(ctx, api.GalleryRegistration{ID: "g1", Cron: "@hourly"}); err != nil {
		t.Fatalf("RegisterGallery: %v", err)
	}
	_, err = d.RegisterGallery(ctx, api.GalleryRegistration{ID: "g1", Cron: "@daily"})
	if !errors.Is(err, statetracker.ErrGalleryAlreadyExists) {
		t.Fatalf("duplicate registration error = %v", err)
	}
}

func TestUpdateGalleryChangesScheduleAndCriteria(t *testing.T) {
	d, ctx := startDaemon(t)

	view, err := d.RegisterGallery(ctx, api.GalleryRegistration{ID: "g1", Cron: "@hourly"})
	if err != nil {
		t.Fatalf("RegisterGallery: %v", err)
	}

	updated, err := d.UpdateGallery(ctx, view.ID, api.GalleryRegistration{
		Cron:           "@daily",
		SearchCriteria: json.RawMessage(`{"keyword":"film camera"}`),
	})
	if err != nil {
		t.Fatalf("UpdateGallery: %v", err)
	}
	if updated.Cron != "@daily" {
		t.Fatalf("cron = %q, want @daily", updated.Cron)
	}
	if string(updated.SearchCriteria) != `{"keyword":"film camera"}` {
		t.Fatalf("search criteria = %s", updated.SearchCriteria)
	}

	if _, err := d.UpdateGallery(ctx, "missing", api.GalleryRegistration{Cron: "@daily"}); err == nil {
		t.Fatal("expected update of unknown gallery to fail")
	}
}

func TestReplayRestoresRegistrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := first.RegisterGallery(ctx, api.GalleryRegistration{ID: "g1", Cron: "0 * * * *"}); err != nil {
		t.Fatalf("RegisterGallery: %v", err)
	}
	first.Stop()

	second, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if err := second.Start(ctx2); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	t.Cleanup(second.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for {
		views, err := second.ListGalleries(ctx2)
		if err != nil {
			t.Fatalf("ListGalleries: %v", err)
		}
		if len(views) == 1 && views[0].Stage == "initialization" && views[0].NextFire != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("gallery not replayed: %+v", views)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
