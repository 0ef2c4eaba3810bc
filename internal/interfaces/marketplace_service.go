package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// MarketplaceService fetches raw marketplace search results for a keyword.
// Implementations return at most limit listings; a shape mismatch in the
// upstream response yields an empty slice, not an error.
type MarketplaceService interface {
	Search(ctx context.Context, keyword string, limit int) ([]models.MarketplaceListing, error)
}
