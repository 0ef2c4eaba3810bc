package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// DiscoveryService queries a search-grounded generative model for candidate
// product pages. Returns at most req.MaxTotal items with unique normalized
// URLs.
type DiscoveryService interface {
	Discover(ctx context.Context, req models.DiscoverRequest, progress ProgressSink) ([]models.DiscoveredItem, error)

	// TranslateCategory translates a product category to English. Returns
	// empty string for empty input.
	TranslateCategory(ctx context.Context, category string, progress ProgressSink) (string, error)
}
