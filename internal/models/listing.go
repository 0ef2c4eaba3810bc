package models

// MarketplaceListing is a raw listing record as returned by the marketplace
// search API. Identity is the link, falling back to the provider product id.
type MarketplaceListing struct {
	Link      string `json:"link"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Sold      string `json:"sold"`
}

// Identity returns the dedup key for the listing.
func (l *MarketplaceListing) Identity() string {
	if l.Link != "" {
		return l.Link
	}
	return l.ProductID
}

// ParsedListing is the normalized, immutable view of a marketplace listing.
// Price is nil when the price text was empty or unparsable; such listings are
// excluded from price statistics rather than treated as free. Sold is nil when
// the "sold already" marker was absent or its number unparsable; sums treat
// nil as zero but per-item output keeps the distinction.
type ParsedListing struct {
	Identity string   `json:"identity"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Sold     *int64   `json:"sold"`
}

// AggregationSummary holds marketplace statistics computed once per run.
type AggregationSummary struct {
	GMVTotal     float64        `json:"gmv_total"`
	UniqueItems  int            `json:"unique_items"`
	AveragePrice *float64       `json:"average_price"`
	TotalSold    int64          `json:"total_sold"`
	MaxPriceItem *ParsedListing `json:"max_price_item"`
	MinPriceItem *ParsedListing `json:"min_price_item"`
	MostSoldItem *ParsedListing `json:"most_sold_item"`
}
