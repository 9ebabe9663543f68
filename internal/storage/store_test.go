package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"galleria/internal/gallery"
	"galleria/internal/pipeline"
	"galleria/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "galleria.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRegistration(id string) *storage.Registration {
	return &storage.Registration{
		ID:                 gallery.ID(id),
		Cron:               "0 * * * *",
		SearchCriteria:     gallery.SearchCriteria{Spec: []byte(`{"keyword":"lens"}`)},
		EvaluationCriteria: gallery.EvaluationCriteria{Spec: []byte(`{"min_price":100}`)},
		ScrapeHistory: map[gallery.Marketplace]time.Time{
			gallery.MarketplaceMercari: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		FailureReasons: map[gallery.Marketplace]string{
			gallery.MarketplaceEbay: "blocked",
		},
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	reg := sampleRegistration("g1")
	if err := store.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("registration not found after insert")
	}
	if got.Cron != reg.Cron {
		t.Fatalf("cron = %q, want %q", got.Cron, reg.Cron)
	}
	if string(got.SearchCriteria.Spec) != string(reg.SearchCriteria.Spec) {
		t.Fatalf("search criteria altered: %s", got.SearchCriteria.Spec)
	}
	if string(got.EvaluationCriteria.Spec) != string(reg.EvaluationCriteria.Spec) {
		t.Fatalf("evaluation criteria altered: %s", got.EvaluationCriteria.Spec)
	}
	if !got.ScrapeHistory[gallery.MarketplaceMercari].Equal(reg.ScrapeHistory[gallery.MarketplaceMercari]) {
		t.Fatalf("scrape history altered: %+v", got.ScrapeHistory)
	}
	if got.FailureReasons[gallery.MarketplaceEbay] != "blocked" {
		t.Fatalf("failure reasons altered: %+v", got.FailureReasons)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestInsertDuplicateID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, sampleRegistration("g1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := store.Insert(ctx, sampleRegistration("g1"))
	if !errors.Is(err, storage.ErrRegistrationExists) {
		t.Fatalf("duplicate insert = %v, want ErrRegistrationExists", err)
	}
}

func TestUpdateReplacesFields(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	reg := sampleRegistration("g1")
	if err := store.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	reg.Cron = "30 6 * * *"
	reg.SearchCriteria = gallery.SearchCriteria{Spec: []byte(`{"keyword":"camera"}`)}
	if err := store.Update(ctx, reg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Cron != "30 6 * * *" {
		t.Fatalf("cron = %q after update", got.Cron)
	}
	if string(got.SearchCriteria.Spec) != `{"keyword":"camera"}` {
		t.Fatalf("search criteria = %s after update", got.SearchCriteria.Spec)
	}
}

func TestUpdateMissingRegistration(t *testing.T) {
	store := openStore(t)
	err := store.Update(context.Background(), sampleRegistration("ghost"))
	if !errors.Is(err, storage.ErrRegistrationNotFound) {
		t.Fatalf("update missing = %v, want ErrRegistrationNotFound", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, sampleRegistration("g1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	existed, err := store.Delete(ctx, gallery.ID("g1"))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Fatal("delete of existing registration reported absent")
	}
	existed, err = store.Delete(ctx, gallery.ID("g1"))
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if existed {
		t.Fatal("second delete reported a row")
	}

	got, err := store.GetByID(ctx, gallery.ID("g1"))
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatal("registration still present after delete")
	}
}

func TestListOrdersByCreation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"g1", "g2", "g3"} {
		if err := store.Insert(ctx, sampleRegistration(id)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}
	regs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("listed %d registrations, want 3", len(regs))
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestRegistrationRebuildsInitializationState(t *testing.T) {
	reg := sampleRegistration("g1")
	state, err := reg.InitializationState()
	if err != nil {
		t.Fatalf("InitializationState failed: %v", err)
	}
	if state.Gallery != reg.ID {
		t.Fatalf("gallery = %s", state.Gallery)
	}
	if state.Schedule.String() != reg.Cron {
		t.Fatalf("schedule = %q", state.Schedule.String())
	}
	if state.Stage() != pipeline.StageInitialization {
		t.Fatalf("stage = %s", state.Stage())
	}

	reg.Cron = "not a cron"
	if _, err := reg.InitializationState(); err == nil {
		t.Fatal("invalid cron accepted")
	}
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "galleria.db")
	ctx := context.Background()

	store, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Insert(ctx, sampleRegistration("g1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := storage.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, gallery.ID("g1"))
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("registration lost across reopen")
	}
	if err := reopened.Health(ctx); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
