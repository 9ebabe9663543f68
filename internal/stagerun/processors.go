package stagerun

import (
	"context"
	"time"

	"galleria/internal/gallery"
	"galleria/internal/pipeline"
)

// The passthrough processors carry a gallery through the full cycle with
// empty stage contributions. They stand in until the real scraping,
// analysis, and embedding collaborators are wired, and they keep the
// daemon runnable without any of them.

func PassthroughSearchScraping(marketplaces []gallery.Marketplace) Processor[pipeline.SearchScrapingState, pipeline.ItemScrapingState] {
	return func(_ context.Context, in pipeline.SearchScrapingState) (pipeline.ItemScrapingState, error) {
		now := time.Now().UTC()
		scrapedAt := make(map[gallery.Marketplace]time.Time, len(marketplaces))
		for _, marketplace := range marketplaces {
			scrapedAt[marketplace] = now
		}
		return in.ToItemScraping(nil, scrapedAt, nil), nil
	}
}

func PassthroughItemScraping() Processor[pipeline.ItemScrapingState, pipeline.ItemAnalysisState] {
	return func(_ context.Context, in pipeline.ItemScrapingState) (pipeline.ItemAnalysisState, error) {
		return in.ToItemAnalysis(nil, nil), nil
	}
}

func PassthroughItemAnalysis() Processor[pipeline.ItemAnalysisState, pipeline.ItemEmbeddingState] {
	return func(_ context.Context, in pipeline.ItemAnalysisState) (pipeline.ItemEmbeddingState, error) {
		return in.ToItemEmbedding(nil, nil), nil
	}
}

func PassthroughItemEmbedding() Processor[pipeline.ItemEmbeddingState, pipeline.FinalState] {
	return func(_ context.Context, in pipeline.ItemEmbeddingState) (pipeline.FinalState, error) {
		return in.ToFinal(nil, nil), nil
	}
}
