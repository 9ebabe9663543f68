package pipeline

import (
	"time"

	"galleria/internal/gallery"
)

// ToSearchScraping starts a pipeline run from a freshly registered
// gallery.
func (s InitializationState) ToSearchScraping() SearchScrapingState {
	return SearchScrapingState{
		Gallery:            s.Gallery,
		SearchCriteria:     s.SearchCriteria,
		EvaluationCriteria: s.EvaluationCriteria,
		UpdatedAt:          s.UpdatedAt,
		FailedReasons:      s.FailedReasons,
	}
}

// ToItemScraping folds the search scrape's results into the payload.
// scrapedAt holds the success timestamp per marketplace that was
// searched; failed holds the failure text per marketplace that was not.
// A fresh success supersedes that marketplace's recorded failure.
func (s SearchScrapingState) ToItemScraping(
	itemIDs map[gallery.Marketplace][]gallery.ItemID,
	scrapedAt map[gallery.Marketplace]time.Time,
	failed map[gallery.Marketplace]string,
) ItemScrapingState {
	updated, reasons := mergeHistory(s.UpdatedAt, s.FailedReasons, scrapedAt, failed)
	return ItemScrapingState{
		Gallery:            s.Gallery,
		ItemIDs:            itemIDs,
		EvaluationCriteria: s.EvaluationCriteria,
		UpdatedAt:          updated,
		FailedReasons:      reasons,
	}
}

// ToItemAnalysis replaces the discovered item IDs with their fully
// scraped listing data. failed records marketplaces whose item scrape
// failed outright.
func (s ItemScrapingState) ToItemAnalysis(
	items map[gallery.Marketplace][]gallery.ItemData,
	failed map[gallery.Marketplace]string,
) ItemAnalysisState {
	updated, reasons := mergeHistory(s.UpdatedAt, s.FailedReasons, nil, failed)
	return ItemAnalysisState{
		Gallery:            s.Gallery,
		Items:              items,
		EvaluationCriteria: s.EvaluationCriteria,
		UpdatedAt:          updated,
		FailedReasons:      reasons,
	}
}

// ToItemEmbedding replaces scraped listings with their analysis results.
func (s ItemAnalysisState) ToItemEmbedding(
	items map[gallery.Marketplace]gallery.AnalyzedItems,
	failed map[gallery.Marketplace]string,
) ItemEmbeddingState {
	updated, reasons := mergeHistory(s.UpdatedAt, s.FailedReasons, nil, failed)
	return ItemEmbeddingState{
		Gallery:       s.Gallery,
		Items:         items,
		UpdatedAt:     updated,
		FailedReasons: reasons,
	}
}

// ToFinal replaces analyzed listings with their embedded, classified
// form, completing the run.
func (s ItemEmbeddingState) ToFinal(
	items map[gallery.Marketplace]gallery.EmbeddedItems,
	failed map[gallery.Marketplace]string,
) FinalState {
	updated, reasons := mergeHistory(s.UpdatedAt, s.FailedReasons, nil, failed)
	return FinalState{
		Gallery:       s.Gallery,
		Items:         items,
		UpdatedAt:     updated,
		FailedReasons: reasons,
	}
}

// RestartFromFinal cycles a completed gallery back into search scraping
// on its next cron fire. The criteria come from the scheduler's retained
// registration since the final payload no longer carries them; the
// marketplace history carries over intact.
func RestartFromFinal(
	s FinalState,
	search gallery.SearchCriteria,
	eval gallery.EvaluationCriteria,
) SearchScrapingState {
	return SearchScrapingState{
		Gallery:            s.Gallery,
		SearchCriteria:     search,
		EvaluationCriteria: eval,
		UpdatedAt:          s.UpdatedAt,
		FailedReasons:      s.FailedReasons,
	}
}

// mergeHistory overlays a stage's per-marketplace outcomes onto the
// carried history. Prior entries survive untouched unless this stage
// produced a newer success or failure for that marketplace.
func mergeHistory(
	updated map[gallery.Marketplace]time.Time,
	reasons map[gallery.Marketplace]string,
	newUpdated map[gallery.Marketplace]time.Time,
	newFailed map[gallery.Marketplace]string,
) (map[gallery.Marketplace]time.Time, map[gallery.Marketplace]string) {
	mergedUpdated := make(map[gallery.Marketplace]time.Time, len(updated)+len(newUpdated))
	for marketplace, at := range updated {
		mergedUpdated[marketplace] = at
	}
	mergedReasons := make(map[gallery.Marketplace]string, len(reasons)+len(newFailed))
	for marketplace, reason := range reasons {
		mergedReasons[marketplace] = reason
	}
	for marketplace, at := range newUpdated {
		mergedUpdated[marketplace] = at
		delete(mergedReasons, marketplace)
	}
	for marketplace, reason := range newFailed {
		mergedReasons[marketplace] = reason
	}
	return mergedUpdated, mergedReasons
}
