package api_test

import (
	"testing"
	"time"

	"galleria/internal/api"
	"galleria/internal/gallery"
	"galleria/internal/pipeline"
	"galleria/internal/scheduler"
	"galleria/internal/statetracker"
	"galleria/internal/storage"
)

func TestFromRegistrationMergesLiveState(t *testing.T) {
	takenAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	nextFire := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	reg := &storage.Registration{
		ID:             gallery.ID("g1"),
		Cron:           "0 * * * *",
		SearchCriteria: gallery.SearchCriteria{Spec: []byte(`{"keyword":"lens"}`)},
		ScrapeHistory: map[gallery.Marketplace]time.Time{
			gallery.MarketplaceMercari: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC),
		},
		FailureReasons: map[gallery.Marketplace]string{gallery.MarketplaceEbay: "blocked"},
	}
	status := &statetracker.GalleryStatus{
		Gallery: reg.ID,
		Stage:   pipeline.StageItemAnalysis,
		Taken:   true,
		TakenAt: takenAt,
	}
	task := &scheduler.TaskStatus{Gallery: reg.ID, Cron: reg.Cron, NextFire: nextFire}

	view := api.FromRegistration(reg, status, task)
	if view.ID != "g1" || view.Cron != "0 * * * *" {
		t.Fatalf("identity fields: %+v", view)
	}
	if view.Stage != "item_analysis" || !view.Taken {
		t.Fatalf("live state not merged: %+v", view)
	}
	if view.TakenAt == nil || !view.TakenAt.Equal(takenAt) {
		t.Fatalf("taken_at = %v", view.TakenAt)
	}
	if view.NextFire == nil || !view.NextFire.Equal(nextFire) {
		t.Fatalf("next_fire = %v", view.NextFire)
	}
	if view.LastScraped["mercari"] != "2026-08-19T00:00:00Z" {
		t.Fatalf("last_scraped = %v", view.LastScraped)
	}
	if view.FailureReasons["ebay"] != "blocked" {
		t.Fatalf("failure_reasons = %v", view.FailureReasons)
	}
}

func TestFromRegistrationWithoutLiveState(t *testing.T) {
	reg := &storage.Registration{ID: gallery.ID("g1"), Cron: "@hourly"}
	view := api.FromRegistration(reg, nil, nil)
	if view.Stage != "" || view.Taken || view.TakenAt != nil || view.NextFire != nil {
		t.Fatalf("unexpected live fields: %+v", view)
	}
	if view.LastScraped != nil || view.FailureReasons != nil {
		t.Fatalf("empty maps should be omitted: %+v", view)
	}
}
