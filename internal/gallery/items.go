package gallery

import "encoding/json"

// ItemData is a fully scraped marketplace listing. The listing content
// itself is opaque to the orchestration core.
type ItemData struct {
	ID      ItemID          `json:"id"`
	Listing json.RawMessage `json:"listing"`
}

// AnalyzedItem pairs a scraped listing with the analysis the external
// provider produced for it.
type AnalyzedItem struct {
	Item     ItemData        `json:"item"`
	Analysis json.RawMessage `json:"analysis"`
}

// AnalyzedItems groups a marketplace's analyzed listings, split by
// whether analysis judged them relevant to the gallery.
type AnalyzedItems struct {
	Relevant   []AnalyzedItem `json:"relevant"`
	Irrelevant []AnalyzedItem `json:"irrelevant"`
	Errored    []ItemData     `json:"errored"`
}

// EmbeddedItem carries an analyzed listing together with its embedding
// vector.
type EmbeddedItem struct {
	Item      AnalyzedItem `json:"item"`
	Embedding []float32    `json:"embedding"`
}

// EmbeddedItems groups a marketplace's embedded and classified listings.
type EmbeddedItems struct {
	Items []EmbeddedItem `json:"items"`
}
