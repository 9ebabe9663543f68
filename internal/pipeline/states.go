package pipeline

import (
	"time"

	"galleria/internal/gallery"
)

// State is the sum type over the six stage payloads. Every payload is
// keyed by its gallery and carries the per-marketplace success and
// failure history forward so no stage loses it.
type State interface {
	GalleryID() gallery.ID
	Stage() Stage

	sealed()
}

// InitializationState is the payload a gallery is registered with. It is
// what the scheduler holds between runs.
type InitializationState struct {
	Gallery            gallery.ID
	Schedule           gallery.CronSchedule
	SearchCriteria     gallery.SearchCriteria
	EvaluationCriteria gallery.EvaluationCriteria
	UpdatedAt          map[gallery.Marketplace]time.Time
	FailedReasons      map[gallery.Marketplace]string
}

// SearchScrapingState is the payload handed to the search-scraping
// module on a cron fire.
type SearchScrapingState struct {
	Gallery            gallery.ID
	SearchCriteria     gallery.SearchCriteria
	EvaluationCriteria gallery.EvaluationCriteria
	UpdatedAt          map[gallery.Marketplace]time.Time
	FailedReasons      map[gallery.Marketplace]string
}

// ItemScrapingState carries the item IDs the search scrape discovered
// per marketplace.
type ItemScrapingState struct {
	Gallery            gallery.ID
	ItemIDs            map[gallery.Marketplace][]gallery.ItemID
	EvaluationCriteria gallery.EvaluationCriteria
	UpdatedAt          map[gallery.Marketplace]time.Time
	FailedReasons      map[gallery.Marketplace]string
}

// ItemAnalysisState carries fully scraped listings awaiting analysis.
type ItemAnalysisState struct {
	Gallery            gallery.ID
	Items              map[gallery.Marketplace][]gallery.ItemData
	EvaluationCriteria gallery.EvaluationCriteria
	UpdatedAt          map[gallery.Marketplace]time.Time
	FailedReasons      map[gallery.Marketplace]string
}

// ItemEmbeddingState carries analyzed listings awaiting embedding and
// classification. Analysis is the last consumer of the evaluation
// criteria, so they are no longer carried from here on.
type ItemEmbeddingState struct {
	Gallery       gallery.ID
	Items         map[gallery.Marketplace]gallery.AnalyzedItems
	UpdatedAt     map[gallery.Marketplace]time.Time
	FailedReasons map[gallery.Marketplace]string
}

// FinalState is the payload a gallery rests in until the next cron fire
// cycles it back into search scraping.
type FinalState struct {
	Gallery       gallery.ID
	Items         map[gallery.Marketplace]gallery.EmbeddedItems
	UpdatedAt     map[gallery.Marketplace]time.Time
	FailedReasons map[gallery.Marketplace]string
}

func (s InitializationState) GalleryID() gallery.ID { return s.Gallery }
func (s SearchScrapingState) GalleryID() gallery.ID { return s.Gallery }
func (s ItemScrapingState) GalleryID() gallery.ID   { return s.Gallery }
func (s ItemAnalysisState) GalleryID() gallery.ID   { return s.Gallery }
func (s ItemEmbeddingState) GalleryID() gallery.ID  { return s.Gallery }
func (s FinalState) GalleryID() gallery.ID          { return s.Gallery }

func (InitializationState) Stage() Stage { return StageInitialization }
func (SearchScrapingState) Stage() Stage { return StageSearchScraping }
func (ItemScrapingState) Stage() Stage   { return StageItemScraping }
func (ItemAnalysisState) Stage() Stage   { return StageItemAnalysis }
func (ItemEmbeddingState) Stage() Stage  { return StageItemEmbedding }
func (FinalState) Stage() Stage          { return StageFinal }

func (InitializationState) sealed() {}
func (SearchScrapingState) sealed() {}
func (ItemScrapingState) sealed()   {}
func (ItemAnalysisState) sealed()   {}
func (ItemEmbeddingState) sealed()  {}
func (FinalState) sealed()          {}
