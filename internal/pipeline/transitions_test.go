package pipeline_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"galleria/internal/gallery"
	"galleria/internal/pipeline"
)

func mustSchedule(t *testing.T, expr string) gallery.CronSchedule {
	t.Helper()
	schedule, err := gallery.ParseCronSchedule(expr)
	if err != nil {
		t.Fatalf("ParseCronSchedule(%q) failed: %v", expr, err)
	}
	return schedule
}

func TestInitializationToSearchScrapingPreservesIdentity(t *testing.T) {
	criteria := gallery.SearchCriteria{Spec: json.RawMessage(`{"keyword":"film camera"}`)}
	eval := gallery.EvaluationCriteria{Spec: json.RawMessage(`{"min_condition":"good"}`)}
	scrapedAt := map[gallery.Marketplace]time.Time{
		gallery.MarketplaceMercari: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	init := pipeline.InitializationState{
		Gallery:            gallery.ID("g1"),
		Schedule:           mustSchedule(t, "0 * * * *"),
		SearchCriteria:     criteria,
		EvaluationCriteria: eval,
		UpdatedAt:          scrapedAt,
		FailedReasons:      map[gallery.Marketplace]string{gallery.MarketplaceEbay: "rate limited"},
	}

	next := init.ToSearchScraping()
	if next.Gallery != gallery.ID("g1") {
		t.Fatalf("gallery id changed: %s", next.Gallery)
	}
	if next.Stage() != pipeline.StageSearchScraping {
		t.Fatalf("stage = %s, want %s", next.Stage(), pipeline.StageSearchScraping)
	}
	if !bytes.Equal(next.SearchCriteria.Spec, criteria.Spec) {
		t.Fatal("search criteria not preserved byte-for-byte")
	}
	if !bytes.Equal(next.EvaluationCriteria.Spec, eval.Spec) {
		t.Fatal("evaluation criteria not preserved byte-for-byte")
	}
	if !next.UpdatedAt[gallery.MarketplaceMercari].Equal(scrapedAt[gallery.MarketplaceMercari]) {
		t.Fatal("updated timestamps not carried forward")
	}
	if next.FailedReasons[gallery.MarketplaceEbay] != "rate limited" {
		t.Fatal("failure history not carried forward")
	}
}

func TestSearchToItemScrapingMergesHistory(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	search := pipeline.SearchScrapingState{
		Gallery: gallery.ID("g1"),
		UpdatedAt: map[gallery.Marketplace]time.Time{
			gallery.MarketplaceMercari: old,
			gallery.MarketplaceEbay:    old,
		},
		FailedReasons: map[gallery.Marketplace]string{
			gallery.MarketplaceMercari: "timeout last run",
		},
	}

	next := search.ToItemScraping(
		map[gallery.Marketplace][]gallery.ItemID{
			gallery.MarketplaceMercari: {"m1", "m2"},
		},
		map[gallery.Marketplace]time.Time{gallery.MarketplaceMercari: fresh},
		map[gallery.Marketplace]string{gallery.MarketplaceYahooAuction: "captcha wall"},
	)

	if !next.UpdatedAt[gallery.MarketplaceMercari].Equal(fresh) {
		t.Fatal("fresh success timestamp not applied")
	}
	if !next.UpdatedAt[gallery.MarketplaceEbay].Equal(old) {
		t.Fatal("untouched marketplace history dropped")
	}
	if _, ok := next.FailedReasons[gallery.MarketplaceMercari]; ok {
		t.Fatal("fresh success should supersede the recorded failure")
	}
	if next.FailedReasons[gallery.MarketplaceYahooAuction] != "captcha wall" {
		t.Fatal("new failure reason not recorded")
	}
	if len(next.ItemIDs[gallery.MarketplaceMercari]) != 2 {
		t.Fatal("item ids not threaded through")
	}
}

func TestFullChainKeepsGalleryAndHistory(t *testing.T) {
	id := gallery.NewID()
	start := pipeline.SearchScrapingState{
		Gallery:       id,
		UpdatedAt:     map[gallery.Marketplace]time.Time{},
		FailedReasons: map[gallery.Marketplace]string{gallery.MarketplaceEbay: "login required"},
	}

	itemScraping := start.ToItemScraping(nil, nil, nil)
	analysis := itemScraping.ToItemAnalysis(nil, nil)
	embedding := analysis.ToItemEmbedding(nil, nil)
	final := embedding.ToFinal(nil, nil)

	if final.Gallery != id {
		t.Fatalf("gallery id mutated along the chain: %s", final.Gallery)
	}
	if final.FailedReasons[gallery.MarketplaceEbay] != "login required" {
		t.Fatal("failure history dropped along the chain")
	}

	restarted := pipeline.RestartFromFinal(final,
		gallery.SearchCriteria{Spec: json.RawMessage(`{}`)},
		gallery.EvaluationCriteria{Spec: json.RawMessage(`{}`)},
	)
	if restarted.Gallery != id {
		t.Fatal("restart changed the gallery id")
	}
	if restarted.Stage() != pipeline.StageSearchScraping {
		t.Fatalf("restart stage = %s", restarted.Stage())
	}
	if restarted.FailedReasons[gallery.MarketplaceEbay] != "login required" {
		t.Fatal("restart dropped failure history")
	}
}

func TestStageMatching(t *testing.T) {
	state := pipeline.FinalState{Gallery: gallery.ID("g1")}
	if !pipeline.Matches(state, pipeline.StageFinal) {
		t.Fatal("FinalState should match StageFinal")
	}
	if pipeline.Matches(state, pipeline.StageItemScraping) {
		t.Fatal("FinalState should not match StageItemScraping")
	}
	if pipeline.Matches(nil, pipeline.StageFinal) {
		t.Fatal("nil state should match nothing")
	}
}

func TestParseStage(t *testing.T) {
	for _, stage := range pipeline.AllStages() {
		parsed, ok := pipeline.ParseStage(string(stage))
		if !ok || parsed != stage {
			t.Fatalf("ParseStage(%q) = %q, %v", stage, parsed, ok)
		}
	}
	if _, ok := pipeline.ParseStage("shipping"); ok {
		t.Fatal("expected unknown stage to be rejected")
	}
}
