package gallery

import "strings"

// Marketplace identifies a source marketplace a gallery aggregates
// listings from.
type Marketplace string

const (
	MarketplaceMercari      Marketplace = "mercari"
	MarketplaceEbay         Marketplace = "ebay"
	MarketplaceYahooAuction Marketplace = "yahoo_auction"
)

var allMarketplaces = []Marketplace{
	MarketplaceMercari,
	MarketplaceEbay,
	MarketplaceYahooAuction,
}

var marketplaceSet = func() map[Marketplace]struct{} {
	set := make(map[Marketplace]struct{}, len(allMarketplaces))
	for _, marketplace := range allMarketplaces {
		set[marketplace] = struct{}{}
	}
	return set
}()

// AllMarketplaces returns the ordered list of known marketplaces.
func AllMarketplaces() []Marketplace {
	cp := make([]Marketplace, len(allMarketplaces))
	copy(cp, allMarketplaces)
	return cp
}

// ParseMarketplace converts a string into a known Marketplace.
func ParseMarketplace(value string) (Marketplace, bool) {
	normalized := Marketplace(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := marketplaceSet[normalized]
	return normalized, ok
}

func (m Marketplace) String() string { return string(m) }
