package pipeline

import "strings"

// Stage is the stateless tag mirroring the payload variants. It lets
// callers ask "which stage" without holding the payload itself.
type Stage string

const (
	StageInitialization Stage = "initialization"
	StageSearchScraping Stage = "search_scraping"
	StageItemScraping   Stage = "item_scraping"
	StageItemAnalysis   Stage = "item_analysis"
	StageItemEmbedding  Stage = "item_embedding"
	StageFinal          Stage = "final"
)

var allStages = []Stage{
	StageInitialization,
	StageSearchScraping,
	StageItemScraping,
	StageItemAnalysis,
	StageItemEmbedding,
	StageFinal,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the pipeline stages in processing order.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

func (s Stage) String() string { return string(s) }

// Matches reports whether a payload carries the given stage tag.
func Matches(state State, stage Stage) bool {
	return state != nil && state.Stage() == stage
}
