package marketplace

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Aggregator fetches marketplace listings for a keyword and reduces them
// into parsed listings plus summary statistics.
type Aggregator struct {
	client interfaces.MarketplaceService
	logger arbor.ILogger
}

// NewAggregator creates an aggregator over the given marketplace client.
func NewAggregator(client interfaces.MarketplaceService, logger arbor.ILogger) *Aggregator {
	return &Aggregator{
		client: client,
		logger: logger,
	}
}

// Aggregate searches the marketplace and computes summary statistics. A
// fetch failure degrades to an empty aggregation; the run carries on.
func (a *Aggregator) Aggregate(ctx context.Context, keyword string, limit int, progress interfaces.ProgressSink) ([]models.ParsedListing, models.AggregationSummary) {
	appendProgress(progress, "Marketplace: searching for "+keyword)

	raw, err := a.client.Search(ctx, keyword, limit)
	if err != nil {
		a.logger.Warn().Err(err).Str("keyword", keyword).Msg("Marketplace fetch failed, continuing with empty aggregation")
		appendProgress(progress, "Marketplace: fetch failed, continuing without listings")
		return []models.ParsedListing{}, Summarize(nil)
	}

	listings := ParseListings(raw)
	appendProgress(progress, fmt.Sprintf("Marketplace: %d unique listings after dedup", len(listings)))

	return listings, Summarize(listings)
}

// ParseListings deduplicates raw listings by identity (first occurrence
// wins) and normalizes price and sold text into numeric values.
func ParseListings(raw []models.MarketplaceListing) []models.ParsedListing {
	parsed := make([]models.ParsedListing, 0, len(raw))
	seen := make(map[string]bool)

	for _, listing := range raw {
		identity := listing.Identity()
		if identity == "" || seen[identity] {
			continue
		}
		seen[identity] = true

		parsed = append(parsed, models.ParsedListing{
			Identity: identity,
			Name:     listing.Name,
			Price:    ParsePrice(listing.Price),
			Sold:     ParseSold(listing.Sold),
		})
	}

	return parsed
}

// Summarize computes aggregate statistics over parsed listings. GMV counts
// only items where both price and sold are known; averages span known
// prices only. Extremes break ties by first occurrence.
func Summarize(listings []models.ParsedListing) models.AggregationSummary {
	summary := models.AggregationSummary{
		UniqueItems: len(listings),
	}

	var priceSum float64
	var priceCount int

	for i := range listings {
		item := &listings[i]

		if item.Price != nil && item.Sold != nil {
			summary.GMVTotal += *item.Price * float64(*item.Sold)
		}
		if item.Sold != nil {
			summary.TotalSold += *item.Sold
		}
		if item.Price != nil {
			priceSum += *item.Price
			priceCount++
			if summary.MaxPriceItem == nil || *item.Price > *summary.MaxPriceItem.Price {
				summary.MaxPriceItem = copyListing(item)
			}
			if summary.MinPriceItem == nil || *item.Price < *summary.MinPriceItem.Price {
				summary.MinPriceItem = copyListing(item)
			}
		}
		if item.Sold != nil {
			if summary.MostSoldItem == nil || *item.Sold > *summary.MostSoldItem.Sold {
				summary.MostSoldItem = copyListing(item)
			}
		}
	}

	if priceCount > 0 {
		average := priceSum / float64(priceCount)
		summary.AveragePrice = &average
	}

	return summary
}

func copyListing(item *models.ParsedListing) *models.ParsedListing {
	clone := *item
	return &clone
}

func appendProgress(progress interfaces.ProgressSink, line string) {
	if progress != nil {
		progress.Append(line)
	}
}
